package realtime

import (
	"testing"

	"github.com/forbiddenlink/spiralsounds/internal/testutil"
	"github.com/forbiddenlink/spiralsounds/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_queueMessage(t *testing.T) {
	t.Run("successful queue", func(t *testing.T) {
		c := &Client{
			send: make(chan ServerMessage, 1),
			stop: make(chan struct{}),
			log:  testutil.TestLogger(t),
		}

		res := c.queueMessage(NewPong())
		assert.True(t, res, "expected queueMessage to return true when channel is not full")

		select {
		case msg := <-c.send:
			assert.NotNil(t, msg, "expected a message to be sent to the client")
		default:
			t.Error("expected a message to be sent to the client, but none was sent")
		}
	})

	t.Run("channel full", func(t *testing.T) {
		c := &Client{
			send: make(chan ServerMessage, 1),
			stop: make(chan struct{}),
			log:  testutil.TestLogger(t),
		}

		c.send <- NewPong() // pre-fill the send channel to simulate a full channel
		res := c.queueMessage(NewPong())
		assert.False(t, res, "expected queueMessage to return false when channel is full")
	})

	t.Run("closed client", func(t *testing.T) {
		c := &Client{
			send: make(chan ServerMessage, 1),
			stop: make(chan struct{}),
			log:  testutil.TestLogger(t),
		}

		c.close()
		res := c.queueMessage(NewPong())
		assert.False(t, res, "expected queueMessage to return false after close")
		assert.Empty(t, c.send, "expected no message queued after close")
	})
}

func Test_close_idempotent(t *testing.T) {
	c := &Client{
		stop: make(chan struct{}),
	}

	c.close()
	c.close()

	select {
	case <-c.stop:
		// channel is closed as expected
	default:
		t.Error("expected stop channel to be closed")
	}
}

func Test_handleFrame(t *testing.T) {
	h := newTestHub(t)

	t.Run("malformed frame is dropped without a reply", func(t *testing.T) {
		c := registerTestClient(t, h, nil)

		c.handleFrame([]byte("not json"))
		assertNoMessage(t, c)
	})

	t.Run("missing type is treated as unknown", func(t *testing.T) {
		c := registerTestClient(t, h, nil)

		c.handleFrame([]byte(`{"room":"jazz"}`))
		assertNoMessage(t, c)
	})

	t.Run("unknown type is dropped without a reply", func(t *testing.T) {
		c := registerTestClient(t, h, nil)

		c.handleFrame([]byte(`{"type":"SOMETHING_NEW"}`))
		assertNoMessage(t, c)
	})

	t.Run("heartbeat replies with pong", func(t *testing.T) {
		c := registerTestClient(t, h, nil)

		c.handleFrame([]byte(`{"type":"HEARTBEAT"}`))

		msg := recvMessage(t, c)
		pong, ok := msg.(*Pong)
		assert.True(t, ok, "expected a pong message, got %T", msg)
		assert.Equal(t, MessageTypePong, pong.Type, "expected PONG type")
	})

	t.Run("join room dispatches to hub", func(t *testing.T) {
		c := registerTestClient(t, h, &types.User{Id: 1, Username: "testuser"})

		c.handleFrame([]byte(`{"type":"JOIN_ROOM","room":"jazz"}`))

		msg := recvMessage(t, c)
		joined, ok := msg.(*RoomJoined)
		assert.True(t, ok, "expected a room joined confirmation, got %T", msg)
		assert.Equal(t, "jazz", joined.Room, "expected room name to match")
		assert.Equal(t, 1, joined.UserCount, "expected member count of 1")

		h.LeaveRoom(c, "jazz")
	})

	t.Run("join with empty room name is ignored", func(t *testing.T) {
		c := registerTestClient(t, h, nil)

		c.handleFrame([]byte(`{"type":"JOIN_ROOM"}`))
		assertNoMessage(t, c)
	})

	t.Run("track product dispatches to hub", func(t *testing.T) {
		c := registerTestClient(t, h, nil)

		c.handleFrame([]byte(`{"type":"TRACK_PRODUCT","productId":42}`))

		msg := recvMessage(t, c)
		tracked, ok := msg.(*TrackingConfirmation)
		assert.True(t, ok, "expected a tracking confirmation, got %T", msg)
		assert.Equal(t, MessageTypeProductTracked, tracked.Type, "expected PRODUCT_TRACKED type")
		assert.Equal(t, ProductId("42"), tracked.ProductId, "expected product id to be echoed")
	})

	t.Run("frame refreshes last activity", func(t *testing.T) {
		c := registerTestClient(t, h, nil)
		c.lastActivity.Store(0)

		c.handleFrame([]byte(`{"type":"HEARTBEAT"}`))
		assert.NotZero(t, c.lastActivity.Load(), "expected last activity to be refreshed")
	})
}

func Test_userId(t *testing.T) {
	anon := &Client{}
	assert.Equal(t, 0, anon.userId(), "expected zero user id for anonymous client")

	authed := &Client{user: &types.User{Id: 7, Username: "testuser"}}
	assert.Equal(t, 7, authed.userId(), "expected user id for authenticated client")
}
