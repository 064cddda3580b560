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
	"github.com/rustam/servhub/internal/domain/catalog/entity"
	"github.com/rustam/servhub/internal/domain/catalog/service"
	"github.com/rustam/servhub/internal/httpx/response"
)

// CatalogService defines the interface for the marketplace catalog
type CatalogService interface {
	Categories(ctx context.Context) ([]entity.Category, error)
	CreateListing(ctx context.Context, in service.CreateListingInput) (*entity.Service, error)
	GetListing(ctx context.Context, id uuid.UUID) (*entity.Service, error)
	SearchListings(ctx context.Context, in service.SearchListingsInput) ([]entity.Service, error)
	UpdateListing(ctx context.Context, id, callerID uuid.UUID, upd entity.ServiceUpdate) (*entity.Service, error)
	DeleteListing(ctx context.Context, id, callerID uuid.UUID) error
}

// CatalogHandler handles HTTP requests for categories and listings
type CatalogHandler struct {
	catalog CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RegisterPublicRoutes registers catalog routes readable without a session
func (h *CatalogHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/categories", h.Categories())
	r.Get("/services", h.Search())
	r.Get("/services/{id}", h.Get())
}

// RegisterProtectedRoutes registers catalog routes that need a session
func (h *CatalogHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/services", h.Create())
	r.Patch("/services/{id}", h.Update())
	r.Delete("/services/{id}", h.Delete())
}

// Categories handles GET /categories
func (h *CatalogHandler) Categories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := h.catalog.Categories(r.Context())
		if err != nil {
			handleCatalogError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"categories": categories,
			"total":      len(categories),
		})
	}
}

// CreateListingRequest represents the body for publishing a listing
type CreateListingRequest struct {
	CategoryID  uuid.UUID        `json:"category_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	PriceType   entity.PriceType `json:"price_type"`
	Location    string           `json:"location"`
	Images      []string         `json:"images"`
}

// Create handles POST /services
func (h *CatalogHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		var req CreateListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		svc, err := h.catalog.CreateListing(r.Context(), service.CreateListingInput{
			OwnerID:     callerID,
			CategoryID:  req.CategoryID,
			Title:       req.Title,
			Description: req.Description,
			Price:       req.Price,
			PriceType:   req.PriceType,
			Location:    req.Location,
			Images:      req.Images,
		})
		if err != nil {
			handleCatalogError(w, err)
			return
		}

		response.Created(w, svc)
	}
}

// Get handles GET /services/{id}
func (h *CatalogHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid service id")
			return
		}

		svc, err := h.catalog.GetListing(r.Context(), id)
		if err != nil {
			handleCatalogError(w, err)
			return
		}

		response.OK(w, svc)
	}
}

// Search handles GET /services
func (h *CatalogHandler) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := service.SearchListingsInput{
			Query: r.URL.Query().Get("q"),
		}

		if c := r.URL.Query().Get("category_id"); c != "" {
			id, err := uuid.Parse(c)
			if err != nil {
				response.BadRequest(w, "invalid category id")
				return
			}
			in.CategoryID = id
		}
		if u := r.URL.Query().Get("user_id"); u != "" {
			id, err := uuid.Parse(u)
			if err != nil {
				response.BadRequest(w, "invalid user id")
				return
			}
			in.UserID = id
		}
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
				in.Limit = parsed
			}
		}
		if o := r.URL.Query().Get("offset"); o != "" {
			if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
				in.Offset = parsed
			}
		}

		services, err := h.catalog.SearchListings(r.Context(), in)
		if err != nil {
			handleCatalogError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"services": services,
			"total":    len(services),
		})
	}
}

// Update handles PATCH /services/{id}
func (h *CatalogHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid service id")
			return
		}

		var upd entity.ServiceUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		svc, err := h.catalog.UpdateListing(r.Context(), id, callerID, upd)
		if err != nil {
			handleCatalogError(w, err)
			return
		}

		response.OK(w, svc)
	}
}

// Delete handles DELETE /services/{id}
func (h *CatalogHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid service id")
			return
		}

		if err := h.catalog.DeleteListing(r.Context(), id, callerID); err != nil {
			handleCatalogError(w, err)
			return
		}

		response.NoContent(w)
	}
}

func handleCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrServiceNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrCategoryNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrInvalidListing):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
