package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rustam/servhub/internal/auth"
	identity "github.com/rustam/servhub/internal/domain/identity/entity"
	"github.com/rustam/servhub/internal/httpx/response"
	"github.com/rustam/servhub/internal/realtime"
)

// TokenVerifier validates an access token and returns its subject
type TokenVerifier interface {
	VerifyAccess(token string) (uuid.UUID, error)
}

// PresenceService flips the stored online flag
type PresenceService interface {
	SetOnline(ctx context.Context, userID uuid.UUID, online bool) (*identity.Profile, error)
}

// Heartbeat keeps a liveness record for a connected user
type Heartbeat interface {
	Beat(ctx context.Context, userID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// WSHandler upgrades authenticated clients to the change feed
type WSHandler struct {
	hub       *realtime.Hub
	tokens    TokenVerifier
	presence  PresenceService
	heartbeat Heartbeat
	log       *slog.Logger

	upgrader websocket.Upgrader
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(hub *realtime.Hub, tokens TokenVerifier, presence PresenceService, heartbeat Heartbeat, log *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:       hub,
		tokens:    tokens,
		presence:  presence,
		heartbeat: heartbeat,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth stands in for an origin check; browsers cannot
			// forge the query parameter cross-site.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers the websocket endpoint
func (h *WSHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.Connect())
}

// RegisterProtectedRoutes registers the presence heartbeat endpoint
func (h *WSHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/presence/heartbeat", h.HeartbeatBeat())
}

// HeartbeatBeat handles POST /presence/heartbeat. Clients without a live
// websocket call it periodically to keep their online flag from being
// swept.
func (h *WSHandler) HeartbeatBeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		if err := h.heartbeat.Beat(r.Context(), userID); err != nil {
			h.log.Error("presence heartbeat failed", "user_id", userID, "error", err)
			response.InternalError(w, "internal server error")
			return
		}
		if _, err := h.presence.SetOnline(r.Context(), userID, true); err != nil {
			h.log.Error("failed to mark online", "user_id", userID, "error", err)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// Connect handles GET /ws?token=. Browsers cannot set headers on a
// websocket handshake, so the access token travels as a query parameter.
func (h *WSHandler) Connect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			response.Unauthorized(w, "token is required")
			return
		}

		userID, err := h.tokens.VerifyAccess(token)
		if err != nil {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the handshake error
			h.log.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := h.hub.Add(userID, conn)
		h.log.Info("websocket connected", "user_id", userID)

		ctx := context.WithoutCancel(r.Context())
		if _, err := h.presence.SetOnline(ctx, userID, true); err != nil {
			h.log.Error("failed to mark online", "user_id", userID, "error", err)
		}
		if err := h.heartbeat.Beat(ctx, userID); err != nil {
			h.log.Error("presence heartbeat failed", "user_id", userID, "error", err)
		}

		go client.ReadLoop()
		client.Wait()

		h.hub.Remove(client)
		h.log.Info("websocket disconnected", "user_id", userID)

		// Another tab may still be attached
		if !h.hub.Connected(userID) {
			if err := h.heartbeat.Clear(ctx, userID); err != nil {
				h.log.Error("failed to clear heartbeat", "user_id", userID, "error", err)
			}
			if _, err := h.presence.SetOnline(ctx, userID, false); err != nil {
				h.log.Error("failed to mark offline", "user_id", userID, "error", err)
			}
		}
	}
}
