package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forbiddenlink/spiralsounds/internal/types"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1024
	sendBufferSize = 256
)

// Client is one live connection. It is owned by the hub for its lifetime;
// the rooms and tracking sets are guarded by the hub's mutex.
type Client struct {
	id           string
	conn         *websocket.Conn
	hub          *Hub
	log          *log.Logger
	user         *types.User
	send         chan ServerMessage
	stop         chan struct{}
	closeOnce    sync.Once
	alive        atomic.Bool
	connectedAt  time.Time
	lastActivity atomic.Int64
	rooms        map[string]struct{}
	tracking     map[ProductId]struct{}
}

func newClient(id string, conn *websocket.Conn, hub *Hub, logger *log.Logger, user *types.User) *Client {
	c := &Client{
		id:          id,
		conn:        conn,
		hub:         hub,
		log:         logger,
		user:        user,
		send:        make(chan ServerMessage, sendBufferSize),
		stop:        make(chan struct{}),
		connectedAt: Now(),
		rooms:       make(map[string]struct{}),
		tracking:    make(map[ProductId]struct{}),
	}
	c.alive.Store(true)
	c.touch()

	return c
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) User() *types.User {
	return c.user
}

func (c *Client) userId() int {
	if c.user != nil {
		return c.user.Id
	}
	return 0
}

// isTracking must only be called while holding the hub's mutex.
func (c *Client) isTracking(productId ProductId) bool {
	_, ok := c.tracking[productId]
	return ok
}

func (c *Client) touch() {
	c.lastActivity.Store(time.Now().UnixMilli())
}

func (c *Client) Write() {
	defer func() {
		c.conn.Close()
		c.log.Printf("client %q: write exiting", c.id)
	}()

	for {
		select {
		case msg := <-c.send:
			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.hub.cleanupClient(c)
		c.log.Printf("client %q: read exiting", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(appData string) error {
		c.alive.Store(true)
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		c.handleFrame(raw)
	}
}

// handleFrame parses and dispatches one inbound text frame. A malformed
// frame or unknown type is logged and dropped without a reply so a bad
// client never fails its own connection.
func (c *Client) handleFrame(raw []byte) {
	c.touch()

	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.log.Printf("client %q: error parsing message: %v", c.id, err)
		return
	}

	switch msg.Type {
	case MessageTypeJoinRoom:
		if msg.Room == "" {
			c.log.Printf("client %q: join with empty room name", c.id)
			return
		}
		c.hub.JoinRoom(c, msg.Room)
	case MessageTypeLeaveRoom:
		if msg.Room == "" {
			c.log.Printf("client %q: leave with empty room name", c.id)
			return
		}
		c.hub.LeaveRoom(c, msg.Room)
	case MessageTypeTrackProduct:
		if msg.ProductId == "" {
			c.log.Printf("client %q: track with empty product id", c.id)
			return
		}
		c.hub.TrackProduct(c, msg.ProductId)
	case MessageTypeUntrackProduct:
		if msg.ProductId == "" {
			c.log.Printf("client %q: untrack with empty product id", c.id)
			return
		}
		c.hub.UntrackProduct(c, msg.ProductId)
	case MessageTypeUserTyping:
		if msg.Room == "" {
			c.log.Printf("client %q: typing with empty room name", c.id)
			return
		}
		c.hub.UserTyping(c, msg.Room)
	case MessageTypeHeartbeat:
		c.queueMessage(NewPong())
	default:
		c.log.Printf("client %q: warning: unknown message type %q", c.id, msg.Type)
	}
}

// queueMessage enqueues a message for the write pump. Delivery is
// fire-and-forget: a closed client or a full buffer drops the message.
func (c *Client) queueMessage(msg ServerMessage) bool {
	select {
	case <-c.stop:
		return false
	default:
	}

	select {
	case c.send <- msg:
	default:
		c.log.Printf("client %q: send buffer full, dropping message", c.id)
		return false
	}

	return true
}

func serializeMessage(msg ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

// ping sends a transport-level ping; the peer's pong sets the alive flag
// via the pong handler. WriteControl is safe concurrently with the write
// pump.
func (c *Client) ping() bool {
	if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
		c.log.Printf("client %q: ping: %v", c.id, err)
		return false
	}
	return true
}

// close hard-closes the connection. Safe to call multiple times; close and
// error may both fire for the same connection in rapid succession.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
