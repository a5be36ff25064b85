package hub

import (
	"sync"

	"starcast/pkg/logger"
)

// Hub tracks connected clients, the rooms they joined and a per-user
// registry for targeted pushes. All maps are guarded by mu; broadcasts
// copy the recipient set before writing so no socket send happens under
// the lock.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	users   map[string]map[*Client]bool
	logger  *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		rooms:   make(map[string]map[*Client]bool),
		users:   make(map[string]map[*Client]bool),
		logger:  log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[*Client]bool)
	}
	h.users[c.UserID][c] = true
}

// Unregister removes the client everywhere and returns the rooms it was
// still in, so the caller can close the matching join records.
func (h *Hub) Unregister(c *Client) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, c)
	if conns := h.users[c.UserID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.UserID)
		}
	}

	left := make([]string, 0, len(c.rooms))
	for roomID := range c.rooms {
		left = append(left, roomID)
		h.removeFromRoom(roomID, c)
	}
	c.rooms = make(map[string]bool)
	return left
}

func (h *Hub) Join(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
	c.rooms[roomID] = true
}

func (h *Hub) Leave(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(roomID, c)
	delete(c.rooms, roomID)
}

func (h *Hub) removeFromRoom(roomID string, c *Client) {
	if m := h.rooms[roomID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) InRoom(roomID string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.rooms[roomID]
}

// BroadcastRoom fans a payload out to one room. Clients whose UserID
// equals excludeUserID are skipped (join echoes, own-action echoes).
func (h *Hub) BroadcastRoom(roomID string, payload []byte, excludeUserID string) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		if excludeUserID != "" && c.UserID == excludeUserID {
			continue
		}
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Send(payload)
	}
}

// BroadcastAll sends to every connected socket regardless of rooms.
func (h *Hub) BroadcastAll(payload []byte) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Send(payload)
	}
}

// SendToUser targets every connection belonging to one user.
func (h *Hub) SendToUser(userID string, payload []byte) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Send(payload)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
