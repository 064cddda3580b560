package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/auth"
	"github.com/rustam/servhub/internal/domain/identity/entity"
	"github.com/rustam/servhub/internal/domain/identity/service"
	"github.com/rustam/servhub/internal/httpx/response"
)

// IdentityService defines the interface for accounts and sessions
type IdentityService interface {
	SignUp(ctx context.Context, in service.SignUpInput) (*entity.Profile, error)
	SignIn(ctx context.Context, email, password string) (*service.SignInOutput, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	SignOut(ctx context.Context, userID uuid.UUID) error
}

// AuthHandler handles HTTP requests for accounts and sessions
type AuthHandler struct {
	identity IdentityService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// RegisterRoutes registers the public auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.SignUp())
		r.Post("/signin", h.SignIn())
		r.Post("/refresh", h.Refresh())
	})
}

// RegisterProtectedRoutes registers auth routes that need a session
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/auth/signout", h.SignOut())
}

// SignUpRequest represents the request body for creating an account
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// SignUp handles POST /auth/signup
func (h *AuthHandler) SignUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		profile, err := h.identity.SignUp(r.Context(), service.SignUpInput{
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
		})
		if err != nil {
			handleAuthError(w, err)
			return
		}

		response.Created(w, profile)
	}
}

// SignInRequest represents the request body for opening a session
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse carries the session tokens and the signed-in profile
type SignInResponse struct {
	Profile      *entity.Profile `json:"profile"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
}

// SignIn handles POST /auth/signin
func (h *AuthHandler) SignIn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		out, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			handleAuthError(w, err)
			return
		}

		response.OK(w, SignInResponse{
			Profile:      out.Profile,
			AccessToken:  out.Tokens.Access,
			RefreshToken: out.Tokens.Refresh,
		})
	}
}

// RefreshRequest represents the request body for rotating tokens
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		pair, err := h.identity.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			handleAuthError(w, err)
			return
		}

		response.OK(w, map[string]string{
			"access_token":  pair.Access,
			"refresh_token": pair.Refresh,
		})
	}
}

// SignOut handles POST /auth/signout
func (h *AuthHandler) SignOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		if err := h.identity.SignOut(r.Context(), userID); err != nil {
			handleAuthError(w, err)
			return
		}

		response.NoContent(w)
	}
}

func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrEmailTaken):
		response.Conflict(w, err.Error())
	case errors.Is(err, entity.ErrInvalidCredentials):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		response.Unauthorized(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
