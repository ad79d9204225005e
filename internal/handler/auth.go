package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskline/taskline-go/internal/middleware"
	"github.com/taskline/taskline-go/internal/model"
	"github.com/taskline/taskline-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleRegister handles POST /api/register requests. Success returns a
// bearer token, so the new user is logged in immediately.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	token, err := h.service.Register(r.Context(), req)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			writeValidationError(w, ve)
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{Token: token})
}

// HandleLogin handles POST /api/login requests. Credential failures are
// reported as a generic field error that does not reveal whether the email
// exists.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		var ve *model.ValidationError
		switch {
		case errors.As(err, &ve):
			writeValidationError(w, ve)
		case errors.Is(err, service.ErrInvalidCredentials):
			ve = model.NewValidationError()
			ve.Add("email", "The provided data are not correct !")
			writeValidationError(w, ve)
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{Token: token})
}

// HandleLogout handles POST /api/logout requests. Every token held by the
// user is revoked, ending all of their sessions at once.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Unauthenticated."))
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, errorResponse("User Logged out !"))
}
