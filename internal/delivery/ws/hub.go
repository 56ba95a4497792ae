package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrNoConnections = errors.New("no active connections for user")

const writeTimeout = 5 * time.Second

// Hub tracks open websocket connections per user and pushes JSON events to
// them. Connections are registered by the HTTP handler that upgraded them.
type Hub struct {
	logger *zap.Logger

	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		conns:  make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Add(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
	count := len(h.conns[userID])
	h.mu.Unlock()
	h.logger.Info("websocket connected", zap.String("user_id", userID), zap.Int("connections", count))
}

func (h *Hub) Remove(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// SendToUser writes the payload to every open connection of the user.
// Dead connections are dropped; the call fails only when nothing was
// reachable.
func (h *Hub) SendToUser(userID string, payload interface{}) error {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return ErrNoConnections
	}

	delivered := 0
	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(payload); err != nil {
			h.logger.Warn("websocket write failed, dropping connection", zap.String("user_id", userID), zap.Error(err))
			h.Remove(userID, conn)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return ErrNoConnections
	}
	return nil
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, set := range h.conns {
		total += len(set)
	}
	return total
}
