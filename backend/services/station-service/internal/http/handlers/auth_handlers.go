package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/auth"
	"cdm/backend/services/station-service/internal/http/middleware"
	"cdm/backend/services/station-service/internal/models"
)

// AuthHandlers serves login, logout and the current actor.
type AuthHandlers struct {
	logins *auth.LoginService
	logger *zap.Logger
}

// NewAuthHandlers returns handler.
func NewAuthHandlers(logins *auth.LoginService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{logins: logins, logger: logger}
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	type response struct {
		Token     string       `json:"token"`
		TokenType string       `json:"token_type"`
		ExpiresAt time.Time    `json:"expires_at"`
		User      models.Actor `json:"user"`
	}

	var req request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.logins.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.ExpiresAt,
		User:      result.Actor,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if err := h.logins.Logout(r.Context(), token); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, actor)
}
