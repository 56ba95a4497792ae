package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// handleWebsocket upgrades the connection and parks it in the hub until the
// client goes away. The server only pushes; inbound frames are drained and
// discarded to keep the connection's read side healthy.
func (h *Handler) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Add(userID, conn)
	defer h.hub.Remove(userID, conn)

	_ = conn.WriteJSON(map[string]interface{}{
		"type":      "connected",
		"user_id":   userID,
		"timestamp": time.Now().Format(time.RFC3339),
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
