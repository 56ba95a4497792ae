package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tokentalk/tokentalk/internal/usecase"
)

func (h *Handler) handleVAPIDKey(w http.ResponseWriter, _ *http.Request) {
	if h.vapidKey == "" {
		writeError(w, http.StatusNotFound, "web push is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.vapidKey})
}

func (h *Handler) handlePushSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "user_id and endpoint required")
		return
	}

	if err := h.users.SavePushSubscription(r.Context(), req.UserID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth); err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
