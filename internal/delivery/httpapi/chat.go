package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"user_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "message required")
		return
	}
	if req.UserID == "" {
		req.UserID = "default_user"
	}

	reply, err := h.chat.Handle(r.Context(), req.UserID, req.Message)
	if err != nil {
		writeAlertError(w, err)
		return
	}

	payload := map[string]interface{}{
		"response":      reply.Response,
		"alert_created": reply.AlertCreated,
		"user_id":       req.UserID,
		"timestamp":     time.Now().Format(time.RFC3339),
	}
	if reply.AlertCreated {
		payload["alert_id"] = reply.AlertID
	}
	if reply.Parsed != nil {
		payload["parsed"] = map[string]interface{}{
			"symbol":       reply.Parsed.Symbol,
			"condition":    string(reply.Parsed.Condition),
			"target_price": reply.Parsed.TargetPrice,
			"confidence":   reply.Parsed.Confidence,
		}
	}
	writeJSON(w, http.StatusOK, payload)
}
