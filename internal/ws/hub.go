package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection with user context.
type Client struct {
	UserID string
	Role   string
	Send   chan []byte
	hub    *Hub
	once   sync.Once
}

func NewClient(userID, role string) *Client {
	return &Client{UserID: userID, Role: role, Send: make(chan []byte, 64)}
}

// Close unregisters the client; Send is closed under the hub lock so no broadcast races it.
func (c *Client) Close() {
	c.once.Do(func() {
		if c.hub != nil {
			c.hub.unregister(c)
			return
		}
		close(c.Send)
	})
}

// Hub fans order events out to connected users and admins.
type Hub struct {
	mu sync.RWMutex
	// userID -> clients (one user can have multiple connections)
	byUser map[string]map[*Client]struct{}
	byRole map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		byUser: make(map[string]map[*Client]struct{}),
		byRole: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
	if h.byRole[c.Role] == nil {
		h.byRole[c.Role] = make(map[*Client]struct{})
	}
	h.byRole[c.Role][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	if m := h.byRole[c.Role]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byRole, c.Role)
		}
	}
	close(c.Send)
}

// send drops the message for slow consumers instead of blocking the caller.
func send(m map[*Client]struct{}, data []byte, skip map[*Client]struct{}) {
	for c := range m {
		if _, ok := skip[c]; ok {
			continue
		}
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *Hub) BroadcastToUser(userID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	send(h.byUser[userID], data, nil)
}

func (h *Hub) BroadcastToRole(role string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	send(h.byRole[role], data, nil)
}

// BroadcastToUserAndRole delivers once per connection even if the user holds the role.
func (h *Hub) BroadcastToUserAndRole(userID, role string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	own := h.byUser[userID]
	send(own, data, nil)
	send(h.byRole[role], data, own)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byUser {
		n += len(m)
	}
	return n
}
