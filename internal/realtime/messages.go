package realtime

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/forbiddenlink/spiralsounds/internal/types"
	"github.com/google/uuid"
)

type MessageType string

// Inbound message types. The set is closed; anything else is logged and
// dropped so unknown types never fail a connection.
const (
	MessageTypeJoinRoom       MessageType = "JOIN_ROOM"
	MessageTypeLeaveRoom      MessageType = "LEAVE_ROOM"
	MessageTypeTrackProduct   MessageType = "TRACK_PRODUCT"
	MessageTypeUntrackProduct MessageType = "UNTRACK_PRODUCT"
	MessageTypeUserTyping     MessageType = "USER_TYPING"
	MessageTypeHeartbeat      MessageType = "HEARTBEAT"
)

// Outbound message types.
const (
	MessageTypeWelcome          MessageType = "WELCOME"
	MessageTypeRoomJoined       MessageType = "ROOM_JOINED"
	MessageTypeRoomLeft         MessageType = "ROOM_LEFT"
	MessageTypeUserJoined       MessageType = "USER_JOINED"
	MessageTypeUserLeft         MessageType = "USER_LEFT"
	MessageTypeProductUpdate    MessageType = "PRODUCT_UPDATE"
	MessageTypeStockUpdate      MessageType = "STOCK_UPDATE"
	MessageTypePriceUpdate      MessageType = "PRICE_UPDATE"
	MessageTypeNewProduct       MessageType = "NEW_PRODUCT"
	MessageTypeProductTracked   MessageType = "PRODUCT_TRACKED"
	MessageTypeProductUntracked MessageType = "PRODUCT_UNTRACKED"
	MessageTypeNotification     MessageType = "NOTIFICATION"
	MessageTypeAnalyticsUpdate  MessageType = "ANALYTICS_UPDATE"
	MessageTypeUserActivity     MessageType = "USER_ACTIVITY"
	MessageTypePong             MessageType = "PONG"
)

// ProductId accepts either a JSON number or a JSON string on the wire and
// normalizes to a string.
type ProductId string

func (p *ProductId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ProductId(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number")
	}
	*p = ProductId(n.String())

	return nil
}

type ClientMessage struct {
	Type      MessageType `json:"type"`
	Room      string      `json:"room,omitempty"`
	ProductId ProductId   `json:"productId,omitempty"`
}

// BaseMessage is embedded in every outbound message so all frames carry
// type and timestamp at the top level.
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

func (b BaseMessage) messageType() MessageType { return b.Type }

// ServerMessage is satisfied by every outbound message via its embedded
// BaseMessage.
type ServerMessage interface {
	messageType() MessageType
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{Type: t, Timestamp: Now()}
}

type Welcome struct {
	BaseMessage
	ClientId string `json:"clientId"`
}

type RoomJoined struct {
	BaseMessage
	Room      string `json:"room"`
	UserCount int    `json:"userCount"`
}

type RoomLeft struct {
	BaseMessage
	Room string `json:"room"`
}

type UserJoined struct {
	BaseMessage
	UserId    int `json:"userId"`
	UserCount int `json:"userCount"`
}

type UserLeft struct {
	BaseMessage
	UserId    int `json:"userId"`
	UserCount int `json:"userCount"`
}

type ProductUpdate struct {
	BaseMessage
	ProductId ProductId `json:"productId"`
	Data      any       `json:"data"`
}

type StockUpdate struct {
	BaseMessage
	ProductId ProductId `json:"productId"`
	NewStock  int       `json:"newStock"`
	OldStock  int       `json:"oldStock"`
}

type PriceUpdate struct {
	BaseMessage
	ProductId ProductId `json:"productId"`
	NewPrice  float64   `json:"newPrice"`
	OldPrice  float64   `json:"oldPrice"`
	Discount  int       `json:"discount"`
}

type NewProduct struct {
	BaseMessage
	Product types.Product `json:"product"`
}

type TrackingConfirmation struct {
	BaseMessage
	ProductId ProductId `json:"productId"`
}

type Notification struct {
	BaseMessage
	Notification map[string]any `json:"notification"`
}

type AnalyticsUpdate struct {
	BaseMessage
	Data any `json:"data"`
}

type UserActivity struct {
	BaseMessage
	UserId   int    `json:"userId"`
	Activity string `json:"activity"`
}

type Pong struct {
	BaseMessage
}

func NewWelcome(clientId string) *Welcome {
	return &Welcome{
		BaseMessage: newBase(MessageTypeWelcome),
		ClientId:    clientId,
	}
}

func NewRoomJoined(room string, userCount int) *RoomJoined {
	return &RoomJoined{
		BaseMessage: newBase(MessageTypeRoomJoined),
		Room:        room,
		UserCount:   userCount,
	}
}

func NewRoomLeft(room string) *RoomLeft {
	return &RoomLeft{
		BaseMessage: newBase(MessageTypeRoomLeft),
		Room:        room,
	}
}

func NewUserJoined(userId, userCount int) *UserJoined {
	return &UserJoined{
		BaseMessage: newBase(MessageTypeUserJoined),
		UserId:      userId,
		UserCount:   userCount,
	}
}

func NewUserLeft(userId, userCount int) *UserLeft {
	return &UserLeft{
		BaseMessage: newBase(MessageTypeUserLeft),
		UserId:      userId,
		UserCount:   userCount,
	}
}

func NewProductUpdate(productId ProductId, data any) *ProductUpdate {
	return &ProductUpdate{
		BaseMessage: newBase(MessageTypeProductUpdate),
		ProductId:   productId,
		Data:        data,
	}
}

func NewStockUpdate(productId ProductId, newStock, oldStock int) *StockUpdate {
	return &StockUpdate{
		BaseMessage: newBase(MessageTypeStockUpdate),
		ProductId:   productId,
		NewStock:    newStock,
		OldStock:    oldStock,
	}
}

func NewPriceUpdate(productId ProductId, newPrice, oldPrice float64) *PriceUpdate {
	return &PriceUpdate{
		BaseMessage: newBase(MessageTypePriceUpdate),
		ProductId:   productId,
		NewPrice:    newPrice,
		OldPrice:    oldPrice,
		Discount:    discount(oldPrice, newPrice),
	}
}

// discount is the percentage drop from old to new, rounded; never negative.
func discount(oldPrice, newPrice float64) int {
	if oldPrice <= newPrice || oldPrice <= 0 {
		return 0
	}
	return int(math.Round((oldPrice - newPrice) / oldPrice * 100))
}

func NewNewProduct(product types.Product) *NewProduct {
	return &NewProduct{
		BaseMessage: newBase(MessageTypeNewProduct),
		Product:     product,
	}
}

func NewProductTracked(productId ProductId) *TrackingConfirmation {
	return &TrackingConfirmation{
		BaseMessage: newBase(MessageTypeProductTracked),
		ProductId:   productId,
	}
}

func NewProductUntracked(productId ProductId) *TrackingConfirmation {
	return &TrackingConfirmation{
		BaseMessage: newBase(MessageTypeProductUntracked),
		ProductId:   productId,
	}
}

// NewNotification copies the payload and stamps it with a generated id and
// timestamp before delivery.
func NewNotification(payload map[string]any) *Notification {
	base := newBase(MessageTypeNotification)

	notification := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		notification[k] = v
	}
	notification["id"] = uuid.NewString()
	notification["timestamp"] = base.Timestamp

	return &Notification{
		BaseMessage:  base,
		Notification: notification,
	}
}

func NewAnalyticsUpdate(data any) *AnalyticsUpdate {
	return &AnalyticsUpdate{
		BaseMessage: newBase(MessageTypeAnalyticsUpdate),
		Data:        data,
	}
}

func NewUserActivity(userId int, activity string) *UserActivity {
	return &UserActivity{
		BaseMessage: newBase(MessageTypeUserActivity),
		UserId:      userId,
		Activity:    activity,
	}
}

func NewPong() *Pong {
	return &Pong{BaseMessage: newBase(MessageTypePong)}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
