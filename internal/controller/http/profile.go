package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/auth"
	"github.com/rustam/servhub/internal/domain/identity/entity"
	"github.com/rustam/servhub/internal/httpx/response"
)

// ProfileService defines the interface for profile operations
type ProfileService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	SearchProfiles(ctx context.Context, query string, limit int) ([]entity.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd entity.ProfileUpdate) (*entity.Profile, error)
}

// ProfileHandler handles HTTP requests for user profiles
type ProfileHandler struct {
	profiles ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterRoutes registers profile routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.Me())
	r.Patch("/me", h.UpdateMe())
	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", h.Search())
		r.Get("/{id}", h.Get())
	})
}

// Me handles GET /me
func (h *ProfileHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		profile, err := h.profiles.GetProfile(r.Context(), userID)
		if err != nil {
			handleProfileError(w, err)
			return
		}

		response.OK(w, profile)
	}
}

// UpdateMe handles PATCH /me
func (h *ProfileHandler) UpdateMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		var upd entity.ProfileUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		profile, err := h.profiles.UpdateProfile(r.Context(), userID, upd)
		if err != nil {
			handleProfileError(w, err)
			return
		}

		response.OK(w, profile)
	}
}

// Get handles GET /profiles/{id}
func (h *ProfileHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid profile id")
			return
		}

		profile, err := h.profiles.GetProfile(r.Context(), id)
		if err != nil {
			handleProfileError(w, err)
			return
		}

		response.OK(w, profile)
	}
}

// Search handles GET /profiles?q=
func (h *ProfileHandler) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			response.BadRequest(w, "q (query) is required")
			return
		}

		limit := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		profiles, err := h.profiles.SearchProfiles(r.Context(), query, limit)
		if err != nil {
			handleProfileError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"profiles": profiles,
			"total":    len(profiles),
		})
	}
}

func handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrProfileNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrInvalidInput):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
