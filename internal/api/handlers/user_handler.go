package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/calculations-api/internal/apperr"
	"github.com/isdelr/calculations-api/internal/auth"
	"github.com/isdelr/calculations-api/internal/services"
	"github.com/rs/zerolog/hlog"
)

// UserHandler handles registration, login and the current user.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  *auth.TokenService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.TokenService) *UserHandler {
	return &UserHandler{service: service, tokens: tokens}
}

// CredentialsPayload is the body of register and login requests.
type CredentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrDuplicateIdentity) {
			hlog.FromRequest(r).Info().Str("email", payload.Email).Msg("Registration with existing email")
		}
		WriteError(w, r, err)
		return
	}

	hlog.FromRequest(r).Info().Str("user_id", user.ID).Msg("Registered user")
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			hlog.FromRequest(r).Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		}
		WriteError(w, r, err)
		return
	}

	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   auth.TokenType,
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}

// GetMe returns the authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
