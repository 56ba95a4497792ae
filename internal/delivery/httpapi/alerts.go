package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/tokentalk/tokentalk/internal/domain"
	"github.com/tokentalk/tokentalk/internal/usecase"
)

type alertResponse struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Symbol      string   `json:"symbol"`
	Condition   string   `json:"condition"`
	TargetPrice string   `json:"target_price"`
	Status      string   `json:"status"`
	Channels    []string `json:"channels"`
	Message     string   `json:"message,omitempty"`
	CreatedAt   string   `json:"created_at"`
	TriggeredAt *string  `json:"triggered_at,omitempty"`
}

func mapAlertResponse(alert domain.Alert) alertResponse {
	resp := alertResponse{
		ID:          alert.ID,
		UserID:      alert.UserID,
		Symbol:      alert.Symbol,
		Condition:   string(alert.Condition),
		TargetPrice: alert.TargetPrice.String(),
		Status:      string(alert.Status),
		Channels:    alert.Channels,
		Message:     alert.Message,
		CreatedAt:   alert.CreatedAt.Format(time.RFC3339),
	}
	if alert.TriggeredAt != nil {
		formatted := alert.TriggeredAt.Format(time.RFC3339)
		resp.TriggeredAt = &formatted
	}
	return resp
}

func mapAlertList(alerts []domain.Alert) map[string]interface{} {
	responses := make([]alertResponse, 0, len(alerts))
	for _, alert := range alerts {
		responses = append(responses, mapAlertResponse(alert))
	}
	return map[string]interface{}{"alerts": responses, "total": len(responses)}
}

type createAlertRequest struct {
	UserID      string   `json:"user_id"`
	Symbol      string   `json:"symbol"`
	Condition   string   `json:"condition"`
	TargetPrice string   `json:"target_price"`
	Channels    []string `json:"channels"`
	Message     string   `json:"message"`
}

func (h *Handler) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := decimal.NewFromString(req.TargetPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "target_price must be a number")
		return
	}

	alert, err := h.alerts.Create(r.Context(), usecase.CreateAlertInput{
		UserID:      req.UserID,
		Symbol:      req.Symbol,
		Condition:   domain.AlertCondition(req.Condition),
		TargetPrice: target,
		Channels:    req.Channels,
		Message:     req.Message,
	})
	if err != nil {
		writeAlertError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapAlertResponse(*alert))
}

// handleParseAlert is the natural-language creation path: same as /chat but
// returns only the created alert.
func (h *Handler) handleParseAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"user_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chat.Handle(r.Context(), req.UserID, req.Message)
	if err != nil {
		writeAlertError(w, err)
		return
	}
	if !reply.AlertCreated {
		writeError(w, http.StatusBadRequest, reply.Response)
		return
	}

	alert, err := h.alerts.Get(r.Context(), reply.AlertID)
	if err != nil {
		writeAlertError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapAlertResponse(*alert))
}

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	writeJSON(w, http.StatusOK, mapAlertList(alerts))
}

func (h *Handler) handleListUserAlerts(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	alerts, err := h.alerts.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	counts, err := h.alerts.CountByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count alerts")
		return
	}

	payload := mapAlertList(alerts)
	payload["counts"] = counts
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.alerts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeAlertError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAlertResponse(*alert))
}

func (h *Handler) handleUpdateAlertStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := h.alerts.UpdateStatus(r.Context(), req.UserID, mux.Vars(r)["id"], domain.AlertStatus(req.Status))
	if err != nil {
		writeAlertError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAlertResponse(*alert))
}

func (h *Handler) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id query parameter required")
		return
	}

	if err := h.alerts.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		writeAlertError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) handleAlertNotifications(w http.ResponseWriter, r *http.Request) {
	records, err := h.alerts.Notifications(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": records, "total": len(records)})
}

func writeAlertError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrAlertNotFound), errors.Is(err, usecase.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, usecase.ErrInvalidSymbol),
		errors.Is(err, usecase.ErrInvalidCondition),
		errors.Is(err, usecase.ErrInvalidThreshold),
		errors.Is(err, usecase.ErrInvalidChannels),
		errors.Is(err, usecase.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
