package realtime

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/forbiddenlink/spiralsounds/internal/stats"
	"github.com/forbiddenlink/spiralsounds/internal/types"
	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"
)

// Well-known rooms addressed by the domain emitters.
const (
	RoomNewReleases = "new-releases"
	RoomAnalytics   = "analytics"
)

const (
	metricNumConnections   = "NumConnections"
	metricNumAuthenticated = "NumAuthenticatedConnections"
	metricNumActiveRooms   = "NumActiveRooms"
	metricNumMessagesSent  = "NumMessagesSent"
)

const DefaultSweepInterval = 30 * time.Second

// Hub owns the live connection set, the room index and the user index.
// All three are mutated only under one coarse mutex: the room-empty
// implies-deleted and user-index-subset-of-connections invariants require
// atomic multi-index updates.
type Hub struct {
	log           *log.Logger
	stats         stats.StatsProvider
	sweepInterval time.Duration
	mu            sync.Mutex
	conns         map[*Client]struct{}
	rooms         map[string]map[*Client]struct{}
	users         map[int]map[*Client]struct{}
	stop          chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
}

func NewHub(logger *log.Logger, su stats.StatsProvider, sweepInterval time.Duration) (*Hub, error) {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	h := &Hub{
		log:           logger,
		stats:         su,
		sweepInterval: sweepInterval,
		conns:         make(map[*Client]struct{}),
		rooms:         make(map[string]map[*Client]struct{}),
		users:         make(map[int]map[*Client]struct{}),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	su.RegisterMetric(metricNumConnections)
	su.RegisterMetric(metricNumAuthenticated)
	su.RegisterMetric(metricNumActiveRooms)
	su.RegisterMetric(metricNumMessagesSent)

	return h, nil
}

// Run drives the periodic liveness sweep until Shutdown is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.sweep()
		case <-h.stop:
			close(h.done)
			return
		}
	}
}

// Register accepts a newly upgraded connection. A nil user means the
// connection is anonymous. The caller starts the read and write pumps.
func (h *Hub) Register(conn *websocket.Conn, user *types.User) *Client {
	id, err := shortid.Generate()
	if err != nil {
		id = fmt.Sprintf("client-%d", time.Now().UnixNano())
	}

	c := newClient(id, conn, h, h.log, user)

	h.mu.Lock()
	h.conns[c] = struct{}{}
	if user != nil {
		if h.users[user.Id] == nil {
			h.users[user.Id] = make(map[*Client]struct{})
		}
		h.users[user.Id][c] = struct{}{}
	}
	h.mu.Unlock()

	h.stats.Incr(metricNumConnections)
	if user != nil {
		h.stats.Incr(metricNumAuthenticated)
		h.log.Printf("registered client %q for user %q", c.id, user.Username)
	} else {
		h.log.Printf("registered anonymous client %q", c.id)
	}

	h.queue(c, NewWelcome(c.id))

	return c
}

// JoinRoom adds the client to the named room, creating it on first join.
// Rejoining an already-joined room is idempotent on the indexes but still
// re-sends the confirmation and join notice.
func (h *Hub) JoinRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
		h.stats.Incr(metricNumActiveRooms)
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}

	count := len(members)
	h.queue(c, NewRoomJoined(room, count))

	joined := NewUserJoined(c.userId(), count)
	for m := range members {
		if m == c {
			continue
		}
		h.queue(m, joined)
	}
}

// LeaveRoom removes the client from the named room, deleting the room if
// it empties. Only the leaver is told; remaining members are not notified
// on an explicit leave (they are on disconnect).
func (h *Hub) LeaveRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
			h.stats.Decr(metricNumActiveRooms)
		}
	}
	delete(c.rooms, room)

	h.queue(c, NewRoomLeft(room))
}

func (h *Hub) TrackProduct(c *Client, productId ProductId) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.tracking[productId] = struct{}{}
	h.queue(c, NewProductTracked(productId))
}

func (h *Hub) UntrackProduct(c *Client, productId ProductId) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(c.tracking, productId)
	h.queue(c, NewProductUntracked(productId))
}

// UserTyping rebroadcasts a typing notice to the other members of the
// room. Purely ephemeral, no state change.
func (h *Hub) UserTyping(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		return
	}

	typing := NewUserActivity(c.userId(), "typing")
	for m := range members {
		if m == c {
			continue
		}
		h.queue(m, typing)
	}
}

// Send delivers a message to exactly one client. A closed client is a
// silent skip, never an error.
func (h *Hub) Send(c *Client, msg ServerMessage) {
	h.queue(c, msg)
}

// Broadcast delivers a message to every open connection.
func (h *Hub) Broadcast(msg ServerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.conns {
		h.queue(c, msg)
	}
}

// BroadcastFunc delivers a message to every open connection for which the
// predicate returns true. The predicate runs under the hub's mutex.
func (h *Hub) BroadcastFunc(msg ServerMessage, pred func(*Client) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.conns {
		if pred(c) {
			h.queue(c, msg)
		}
	}
}

// BroadcastToRoom delivers a message to every member of the named room,
// optionally excluding one client. A nonexistent room is a silent no-op.
func (h *Hub) BroadcastToRoom(room string, msg ServerMessage, skip *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		return
	}

	for m := range members {
		if m == skip {
			continue
		}
		h.queue(m, msg)
	}
}

// SendToUser delivers a message to every connection of the given user. A
// user with no live connections is a silent no-op; the message is lost,
// not queued.
func (h *Hub) SendToUser(userId int, msg ServerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.users[userId] {
		h.queue(c, msg)
	}
}

func (h *Hub) BroadcastProductUpdate(productId ProductId, data any) {
	h.BroadcastFunc(NewProductUpdate(productId, data), func(c *Client) bool {
		return c.isTracking(productId)
	})
}

func (h *Hub) BroadcastStockUpdate(productId ProductId, newStock, oldStock int) {
	h.BroadcastFunc(NewStockUpdate(productId, newStock, oldStock), func(c *Client) bool {
		return c.isTracking(productId)
	})
}

func (h *Hub) BroadcastPriceUpdate(productId ProductId, newPrice, oldPrice float64) {
	h.BroadcastFunc(NewPriceUpdate(productId, newPrice, oldPrice), func(c *Client) bool {
		return c.isTracking(productId)
	})
}

func (h *Hub) BroadcastNewProduct(product types.Product) {
	h.BroadcastToRoom(RoomNewReleases, NewNewProduct(product), nil)
}

func (h *Hub) BroadcastAnalytics(data any) {
	h.BroadcastToRoom(RoomAnalytics, NewAnalyticsUpdate(data), nil)
}

func (h *Hub) SendNotification(userId int, payload map[string]any) {
	h.SendToUser(userId, NewNotification(payload))
}

// ProductKey converts a numeric product id to its wire representation.
func ProductKey(id int) ProductId {
	return ProductId(strconv.Itoa(id))
}

type ConnectionStats struct {
	TotalConnections   int            `json:"totalConnections"`
	AuthenticatedUsers int            `json:"authenticatedUsers"`
	AnonymousUsers     int            `json:"anonymousUsers"`
	Rooms              map[string]int `json:"rooms"`
}

// Stats returns a point-in-time snapshot of the registry.
func (h *Hub) Stats() ConnectionStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	authenticated := 0
	for _, set := range h.users {
		authenticated += len(set)
	}

	rooms := make(map[string]int, len(h.rooms))
	for name, members := range h.rooms {
		rooms[name] = len(members)
	}

	total := len(h.conns)
	return ConnectionStats{
		TotalConnections:   total,
		AuthenticatedUsers: authenticated,
		AnonymousUsers:     total - authenticated,
		Rooms:              rooms,
	}
}

// queue enqueues on a single client, counting delivered messages. Callers
// may hold the mutex; queueMessage never blocks.
func (h *Hub) queue(c *Client, msg ServerMessage) {
	if c.queueMessage(msg) {
		h.stats.Incr(metricNumMessagesSent)
	}
}

// sweep is the periodic liveness check. A client whose alive flag was not
// refreshed by a pong since the previous sweep is presumed dead and hard
// closed; everyone else has the flag cleared and a ping sent, to be
// answered before the next sweep.
func (h *Hub) sweep() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if !c.alive.Swap(false) {
			h.log.Printf("client %q failed liveness check, terminating", c.id)
			c.close()
			continue
		}
		c.ping()
	}
}

// cleanupClient evicts a connection from every index. Safe to call twice
// for the same connection; close and error may both trigger it.
func (h *Hub) cleanupClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.conns[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c)

	for room := range c.rooms {
		members, ok := h.rooms[room]
		if !ok {
			continue
		}
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
			h.stats.Decr(metricNumActiveRooms)
			continue
		}

		left := NewUserLeft(c.userId(), len(members))
		for m := range members {
			h.queue(m, left)
		}
	}
	clear(c.rooms)
	clear(c.tracking)

	if c.user != nil {
		if set, ok := h.users[c.user.Id]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.users, c.user.Id)
			}
		}
		h.stats.Decr(metricNumAuthenticated)
	}
	h.mu.Unlock()

	h.stats.Decr(metricNumConnections)
	h.log.Printf("removed client %q", c.id)
	c.close()
}

// Shutdown stops the sweep, force closes every connection and clears all
// three indexes. Idempotent; waiting on the sweep loop is bounded by ctx.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.stopOnce.Do(func() {
		close(h.stop)
	})

	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.conns = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.users = make(map[int]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	return nil
}
