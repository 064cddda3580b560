package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/auth"
	"github.com/rustam/servhub/internal/domain/chat/entity"
	"github.com/rustam/servhub/internal/domain/chat/service"
	"github.com/rustam/servhub/internal/httpx/response"
)

// ChatPolicy defines the interface for authorized chat operations
type ChatPolicy interface {
	SendMessageRequest(ctx context.Context, callerID, receiverID uuid.UUID, text string) (*entity.MessageRequest, error)
	PendingRequests(ctx context.Context, callerID uuid.UUID) ([]entity.MessageRequest, error)
	RespondToMessageRequest(ctx context.Context, callerID, requestID uuid.UUID, accept bool) (*entity.Conversation, error)
	Directory(ctx context.Context, callerID uuid.UUID) ([]entity.ConversationView, error)
	GetConversation(ctx context.Context, callerID, conversationID uuid.UUID) (*entity.ConversationView, error)
	ListMessages(ctx context.Context, callerID, conversationID uuid.UUID) ([]entity.Message, error)
	SendMessage(ctx context.Context, callerID uuid.UUID, in service.SendMessageInput) (*entity.Message, error)
	MarkDelivered(ctx context.Context, callerID, conversationID uuid.UUID) ([]uuid.UUID, error)
	MarkSeen(ctx context.Context, callerID, conversationID uuid.UUID) ([]uuid.UUID, error)
}

// ChatHandler handles HTTP requests for message requests and conversations
type ChatHandler struct {
	policy ChatPolicy
}

// NewChatHandler creates a new chat handler
func NewChatHandler(p ChatPolicy) *ChatHandler {
	return &ChatHandler{policy: p}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SendRequest())
			r.Get("/", h.PendingRequests())
			r.Post("/{id}/respond", h.RespondToRequest())
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", h.Directory())
			r.Get("/{id}", h.GetConversation())
			r.Get("/{id}/messages", h.ListMessages())
			r.Post("/{id}/messages", h.SendMessage())
			r.Post("/{id}/delivered", h.MarkDelivered())
			r.Post("/{id}/seen", h.MarkSeen())
		})
	})
}

// SendRequestRequest represents the body for creating a message request
type SendRequestRequest struct {
	ReceiverID uuid.UUID `json:"receiver_id"`
	Message    string    `json:"message"`
}

// SendRequest handles POST /chat/requests
func (h *ChatHandler) SendRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		var req SendRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		if req.ReceiverID == uuid.Nil {
			response.BadRequest(w, "receiver_id is required")
			return
		}

		out, err := h.policy.SendMessageRequest(r.Context(), callerID, req.ReceiverID, req.Message)
		if err != nil {
			handleChatError(w, err)
			return
		}

		response.Created(w, out)
	}
}

// PendingRequests handles GET /chat/requests
func (h *ChatHandler) PendingRequests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		requests, err := h.policy.PendingRequests(r.Context(), callerID)
		if err != nil {
			handleChatError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"requests": requests,
			"total":    len(requests),
		})
	}
}

// RespondToRequestRequest represents the body for resolving a request
type RespondToRequestRequest struct {
	Accept bool `json:"accept"`
}

// RespondToRequestResponse carries the resolution outcome. Conversation
// is set only when the request was accepted.
type RespondToRequestResponse struct {
	Status       string               `json:"status"`
	Conversation *entity.Conversation `json:"conversation,omitempty"`
}

// RespondToRequest handles POST /chat/requests/{id}/respond
func (h *ChatHandler) RespondToRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid request id")
			return
		}

		var req RespondToRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		conv, err := h.policy.RespondToMessageRequest(r.Context(), callerID, requestID, req.Accept)
		if err != nil {
			handleChatError(w, err)
			return
		}

		status := string(entity.RequestStatusDeclined)
		if req.Accept {
			status = string(entity.RequestStatusAccepted)
		}
		response.OK(w, RespondToRequestResponse{
			Status:       status,
			Conversation: conv,
		})
	}
}

// Directory handles GET /chat/conversations
func (h *ChatHandler) Directory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		conversations, err := h.policy.Directory(r.Context(), callerID)
		if err != nil {
			handleChatError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"conversations": conversations,
			"total":         len(conversations),
		})
	}
}

// GetConversation handles GET /chat/conversations/{id}
func (h *ChatHandler) GetConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid conversation id")
			return
		}

		conv, err := h.policy.GetConversation(r.Context(), callerID, conversationID)
		if err != nil {
			handleChatError(w, err)
			return
		}

		response.OK(w, conv)
	}
}

// ListMessages handles GET /chat/conversations/{id}/messages. Fetching the
// stream also acknowledges delivery of others' pending messages.
func (h *ChatHandler) ListMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid conversation id")
			return
		}

		messages, err := h.policy.ListMessages(r.Context(), callerID, conversationID)
		if err != nil {
			handleChatError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"messages": messages,
			"total":    len(messages),
		})
	}
}

// SendMessageRequest represents the body for appending a message
type SendMessageRequest struct {
	Content string             `json:"content"`
	Type    entity.MessageType `json:"type"`
	FileURL string             `json:"file_url"`
	ReplyTo *uuid.UUID         `json:"reply_to"`
}

// SendMessage handles POST /chat/conversations/{id}/messages
func (h *ChatHandler) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid conversation id")
			return
		}

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		msg, err := h.policy.SendMessage(r.Context(), callerID, service.SendMessageInput{
			ConversationID: conversationID,
			Content:        req.Content,
			Type:           req.Type,
			FileURL:        req.FileURL,
			ReplyTo:        req.ReplyTo,
		})
		if err != nil {
			handleChatError(w, err)
			return
		}

		response.Created(w, msg)
	}
}

// MarkDelivered handles POST /chat/conversations/{id}/delivered
func (h *ChatHandler) MarkDelivered() http.HandlerFunc {
	return h.markStatus(func(ctx context.Context, callerID, conversationID uuid.UUID) ([]uuid.UUID, error) {
		return h.policy.MarkDelivered(ctx, callerID, conversationID)
	})
}

// MarkSeen handles POST /chat/conversations/{id}/seen
func (h *ChatHandler) MarkSeen() http.HandlerFunc {
	return h.markStatus(func(ctx context.Context, callerID, conversationID uuid.UUID) ([]uuid.UUID, error) {
		return h.policy.MarkSeen(ctx, callerID, conversationID)
	})
}

func (h *ChatHandler) markStatus(mark func(context.Context, uuid.UUID, uuid.UUID) ([]uuid.UUID, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid conversation id")
			return
		}

		ids, err := mark(r.Context(), callerID, conversationID)
		if err != nil {
			handleChatError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"updated": len(ids),
		})
	}
}

func handleChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrConversationNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrRequestNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrRecipientNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrRequestResolved):
		response.Conflict(w, err.Error())
	case errors.Is(err, entity.ErrSelfRequest):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrEmptyMessage):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrMessageTooLong):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrInvalidMessageType):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrFileRequired):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
