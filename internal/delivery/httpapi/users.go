package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tokentalk/tokentalk/internal/domain"
	"github.com/tokentalk/tokentalk/internal/usecase"
)

type userResponse struct {
	ID                 string `json:"id"`
	Email              string `json:"email,omitempty"`
	EmailNotifications bool   `json:"email_notifications"`
	TelegramChatID     int64  `json:"telegram_chat_id,omitempty"`
}

func mapUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:                 user.ID,
		Email:              user.Email,
		EmailNotifications: user.EmailNotifications,
		TelegramChatID:     user.TelegramChatID,
	}
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	user, err := h.users.GetOrCreate(r.Context(), req.UserID, req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusOK, mapUserResponse(*user))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, mapUserResponse(*user))
}

func (h *Handler) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email              string `json:"email"`
		EmailNotifications bool   `json:"email_notifications"`
		TelegramChatID     int64  `json:"telegram_chat_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.UpdatePreferences(r.Context(), mux.Vars(r)["id"], req.Email, req.EmailNotifications, req.TelegramChatID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, mapUserResponse(*user))
}
