package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/auth"
	"github.com/rustam/servhub/internal/domain/direct/entity"
	"github.com/rustam/servhub/internal/httpx/response"
)

// DirectService defines the interface for pairwise lightweight messages
type DirectService interface {
	List(ctx context.Context, callerID, peerID uuid.UUID) ([]entity.Message, error)
	Send(ctx context.Context, callerID, peerID uuid.UUID, content string) (*entity.Message, error)
	MarkAllRead(ctx context.Context, callerID, peerID uuid.UUID) ([]uuid.UUID, error)
}

// DirectHandler handles HTTP requests for direct messages
type DirectHandler struct {
	direct DirectService
}

// NewDirectHandler creates a new direct message handler
func NewDirectHandler(direct DirectService) *DirectHandler {
	return &DirectHandler{direct: direct}
}

// RegisterRoutes registers direct message routes
func (h *DirectHandler) RegisterRoutes(r chi.Router) {
	r.Route("/direct/{peerId}", func(r chi.Router) {
		r.Get("/", h.List())
		r.Post("/", h.Send())
		r.Post("/read", h.MarkAllRead())
	})
}

// List handles GET /direct/{peerId}
func (h *DirectHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, peerID, ok := directParties(w, r)
		if !ok {
			return
		}

		messages, err := h.direct.List(r.Context(), callerID, peerID)
		if err != nil {
			handleDirectError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"messages": messages,
			"total":    len(messages),
		})
	}
}

// SendDirectRequest represents the body for sending a direct message
type SendDirectRequest struct {
	Content string `json:"content"`
}

// Send handles POST /direct/{peerId}
func (h *DirectHandler) Send() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, peerID, ok := directParties(w, r)
		if !ok {
			return
		}

		var req SendDirectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		msg, err := h.direct.Send(r.Context(), callerID, peerID, req.Content)
		if err != nil {
			handleDirectError(w, err)
			return
		}

		response.Created(w, msg)
	}
}

// MarkAllRead handles POST /direct/{peerId}/read
func (h *DirectHandler) MarkAllRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, peerID, ok := directParties(w, r)
		if !ok {
			return
		}

		ids, err := h.direct.MarkAllRead(r.Context(), callerID, peerID)
		if err != nil {
			handleDirectError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"updated": len(ids),
		})
	}
}

func directParties(w http.ResponseWriter, r *http.Request) (callerID, peerID uuid.UUID, ok bool) {
	callerID, ok = auth.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	peerID, err := uuid.Parse(chi.URLParam(r, "peerId"))
	if err != nil {
		response.BadRequest(w, "invalid peer id")
		return uuid.Nil, uuid.Nil, false
	}

	return callerID, peerID, true
}

func handleDirectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrEmptyMessage):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrSelfMessage):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrRecipientNotFound):
		response.NotFound(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
