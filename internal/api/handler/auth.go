package handler

import (
	"net/http"

	"github.com/Rrens/trip-planner/internal/api/response"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if !decode(w, r, &input) {
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	response.Created(w, map[string]any{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if !decode(w, r, &input) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	response.OK(w, tokens)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input domain.RefreshRequest
	if !decode(w, r, &input) {
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.Refresh)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	response.OK(w, tokens)
}

// Logout revokes the posted refresh token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var input domain.RefreshRequest
	if !decode(w, r, &input) {
		return
	}

	if err := h.authService.Logout(r.Context(), input.Refresh); err != nil {
		serviceError(w, r, err)
		return
	}

	response.NoContent(w)
}
