package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout  = 10 * time.Second
	pingInterval  = 25 * time.Second
	sendQueueSize = 64
)

// Client is one websocket connection owned by a user. A user may hold
// several clients (multiple tabs/devices).
type Client struct {
	UserID uuid.UUID
	conn   *websocket.Conn
	send   chan Event

	ctx    context.Context
	cancel context.CancelFunc
}

// Hub routes row-change events to the connections of their audience
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: map[uuid.UUID]map[*Client]struct{}{},
	}
}

// Add registers a connection for a user and starts its write and
// keepalive loops.
func (h *Hub) Add(userID uuid.UUID, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan Event, sendQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	go c.keepAliveLoop()

	return c
}

// Remove drops a connection and closes it
func (h *Hub) Remove(c *Client) {
	c.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}

	_ = c.conn.Close()
}

// Connected reports whether the user has any live connection left
func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Publish sends an event to every connection of the given users.
// Slow consumers have events dropped rather than blocking the sender.
func (h *Hub) Publish(userIDs []uuid.UUID, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range userIDs {
		for c := range h.clients[uid] {
			select {
			case c.send <- ev:
			default:
				// queue full, drop
			}
		}
	}
}

// Broadcast sends an event to every connected client
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, set := range h.clients {
		for c := range set {
			select {
			case c.send <- ev:
			default:
			}
		}
	}
}

// Wait blocks until the client's connection is torn down
func (c *Client) Wait() {
	<-c.ctx.Done()
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.cancel()
				return
			}
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.cancel()
				return
			}
		}
	}
}

// ReadLoop consumes and discards inbound frames so that close frames
// and pongs are processed; it returns when the peer goes away.
func (c *Client) ReadLoop() {
	defer c.cancel()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
