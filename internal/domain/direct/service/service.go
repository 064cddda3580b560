package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/domain/direct/entity"
)

// MessageRepository defines the interface for direct-message storage
type MessageRepository interface {
	Insert(ctx context.Context, msg *entity.Message) error
	ListBetween(ctx context.Context, a, b uuid.UUID) ([]entity.Message, error)
	MarkAllRead(ctx context.Context, readerID, peerID uuid.UUID) ([]uuid.UUID, error)
}

// EventPublisher pushes direct-message changes to connected clients
type EventPublisher interface {
	DirectMessageInserted(recipients []uuid.UUID, msg *entity.Message)
	DirectMessagesRead(recipients []uuid.UUID, readerID, peerID uuid.UUID, ids []uuid.UUID)
}

// Service handles the peer-to-peer channel
type Service struct {
	repo   MessageRepository
	events EventPublisher
}

// New creates a new direct-message service
func New(repo MessageRepository, events EventPublisher) *Service {
	return &Service{repo: repo, events: events}
}

// List returns the pair's messages oldest first
func (s *Service) List(ctx context.Context, callerID, peerID uuid.UUID) ([]entity.Message, error) {
	return s.repo.ListBetween(ctx, callerID, peerID)
}

// Send creates an unread message from caller to peer
func (s *Service) Send(ctx context.Context, callerID, peerID uuid.UUID, content string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, entity.ErrEmptyMessage
	}
	if callerID == peerID {
		return nil, entity.ErrSelfMessage
	}

	msg := &entity.Message{
		ID:         uuid.New(),
		SenderID:   callerID,
		ReceiverID: peerID,
		Content:    content,
		IsRead:     false,
	}
	if err := s.repo.Insert(ctx, msg); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.DirectMessageInserted([]uuid.UUID{callerID, peerID}, msg)
	}
	return msg, nil
}

// MarkAllRead flips every unread message from peer to caller
func (s *Service) MarkAllRead(ctx context.Context, callerID, peerID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.repo.MarkAllRead(ctx, callerID, peerID)
	if err != nil {
		return nil, err
	}

	if s.events != nil && len(ids) > 0 {
		s.events.DirectMessagesRead([]uuid.UUID{callerID, peerID}, callerID, peerID, ids)
	}
	return ids, nil
}
