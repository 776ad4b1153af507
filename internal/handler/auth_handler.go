package handler

import (
	"net/http"
	"time"

	"notes-portal/internal/model"

	"github.com/rs/zerolog"
)

// LoginRequest is the body of an admin login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Authenticator verifies admin credentials.
type Authenticator interface {
	Login(username, password string) (string, time.Time, error)
}

// AuthHandler handles admin authentication requests.
type AuthHandler struct {
	auth   Authenticator
	logger zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth Authenticator, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With().Str("handler", "auth").Logger(),
	}
}

// Login handles POST /api/admin/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeServiceError(w, r, model.NewValidationError("", "username and password are required"), h.logger)
		return
	}

	token, expiresAt, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}
