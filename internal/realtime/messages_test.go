package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/forbiddenlink/spiralsounds/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_discount(t *testing.T) {
	tcases := []struct {
		name     string
		oldPrice float64
		newPrice float64
		expected int
	}{
		{
			name:     "price drop",
			oldPrice: 100,
			newPrice: 75,
			expected: 25,
		},
		{
			name:     "price increase is never a negative discount",
			oldPrice: 50,
			newPrice: 60,
			expected: 0,
		},
		{
			name:     "unchanged price",
			oldPrice: 20,
			newPrice: 20,
			expected: 0,
		},
		{
			name:     "rounds to nearest percent",
			oldPrice: 30,
			newPrice: 20,
			expected: 33,
		},
		{
			name:     "zero old price",
			oldPrice: 0,
			newPrice: 10,
			expected: 0,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, discount(tc.oldPrice, tc.newPrice),
				"expected discount for %v -> %v to match", tc.oldPrice, tc.newPrice)
		})
	}
}

func TestNewPriceUpdate(t *testing.T) {
	msg := NewPriceUpdate("42", 75, 100)
	assert.Equal(t, MessageTypePriceUpdate, msg.Type, "expected PRICE_UPDATE type")
	assert.Equal(t, ProductId("42"), msg.ProductId, "expected product id to match")
	assert.Equal(t, 25, msg.Discount, "expected discount to be computed from prices")
	assert.WithinDuration(t, Now(), msg.Timestamp, time.Second, "expected timestamp to be set")
}

func TestProductId_UnmarshalJSON(t *testing.T) {
	tcases := []struct {
		name     string
		raw      string
		expected ProductId
		err      bool
	}{
		{
			name:     "number",
			raw:      `{"type":"TRACK_PRODUCT","productId":42}`,
			expected: "42",
		},
		{
			name:     "string",
			raw:      `{"type":"TRACK_PRODUCT","productId":"abc-1"}`,
			expected: "abc-1",
		},
		{
			name: "boolean is rejected",
			raw:  `{"type":"TRACK_PRODUCT","productId":true}`,
			err:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			var msg ClientMessage
			err := json.Unmarshal([]byte(tc.raw), &msg)
			if tc.err {
				assert.Error(t, err, "expected unmarshal error")
				return
			}
			assert.NoError(t, err, "expected no unmarshal error")
			assert.Equal(t, tc.expected, msg.ProductId, "expected normalized product id")
		})
	}
}

func Test_serializeMessage_flatEnvelope(t *testing.T) {
	msg := NewRoomJoined("jazz", 3)

	bytes, err := serializeMessage(msg)
	assert.NoError(t, err, "expected no error during serialization")

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(bytes, &decoded), "expected serialized frame to be valid JSON")
	assert.Equal(t, "ROOM_JOINED", decoded["type"], "expected type at the top level")
	assert.Equal(t, "jazz", decoded["room"], "expected room at the top level")
	assert.Equal(t, float64(3), decoded["userCount"], "expected userCount at the top level")
	assert.Contains(t, decoded, "timestamp", "expected timestamp at the top level")
}

func TestNewWelcome(t *testing.T) {
	msg := NewWelcome("abc123")
	assert.Equal(t, MessageTypeWelcome, msg.Type, "expected WELCOME type")
	assert.Equal(t, "abc123", msg.ClientId, "expected client id to be carried")
	assert.WithinDuration(t, Now(), msg.Timestamp, time.Second, "expected timestamp to be set")
}

func TestNewNotification(t *testing.T) {
	payload := map[string]any{"title": "Order shipped", "orderId": 7}

	msg := NewNotification(payload)
	assert.Equal(t, MessageTypeNotification, msg.Type, "expected NOTIFICATION type")
	assert.Equal(t, "Order shipped", msg.Notification["title"], "expected payload fields to be preserved")
	assert.Equal(t, 7, msg.Notification["orderId"], "expected payload fields to be preserved")
	assert.NotEmpty(t, msg.Notification["id"], "expected a generated notification id")
	assert.Equal(t, msg.Timestamp, msg.Notification["timestamp"], "expected payload timestamp to match envelope")

	// input payload must not be mutated
	assert.NotContains(t, payload, "id", "expected input payload to be left untouched")
}

func TestNewNewProduct(t *testing.T) {
	product := types.Product{Id: 1, Title: "Kind of Blue", Artist: "Miles Davis", Price: 29.99, Stock: 10}

	msg := NewNewProduct(product)
	assert.Equal(t, MessageTypeNewProduct, msg.Type, "expected NEW_PRODUCT type")
	assert.Equal(t, product, msg.Product, "expected product payload to be carried")
}
