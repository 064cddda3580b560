package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/domain/chat/entity"
)

// ConversationRepository defines the interface for conversation storage
type ConversationRepository interface {
	EnsureBetween(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	ParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]entity.ConversationView, error)
	OtherParticipants(ctx context.Context, conversationID, userID uuid.UUID) ([]entity.Participant, error)
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	Insert(ctx context.Context, msg *entity.Message) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]entity.Message, error)
	MarkDelivered(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error)
	MarkSeen(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error)
}

// RequestRepository defines the interface for message-request storage
type RequestRepository interface {
	Insert(ctx context.Context, req *entity.MessageRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.MessageRequest, error)
	ListPendingForReceiver(ctx context.Context, receiverID uuid.UUID) ([]entity.MessageRequest, error)
	HasPendingBetween(ctx context.Context, senderID, receiverID uuid.UUID) (bool, error)
	Resolve(ctx context.Context, id uuid.UUID, status entity.RequestStatus) (bool, error)
}

// EventPublisher pushes chat row changes to connected clients.
// Delivery is at-least-once, unordered, and must never block.
type EventPublisher interface {
	MessageInserted(recipients []uuid.UUID, msg *entity.Message)
	MessageStatusUpdated(recipients []uuid.UUID, upd *entity.StatusUpdate)
	RequestInserted(receiverID uuid.UUID, req *entity.MessageRequest)
}

// Service handles chat business logic
type Service struct {
	convRepo ConversationRepository
	msgRepo  MessageRepository
	reqRepo  RequestRepository
	events   EventPublisher
}

// New creates a new chat service
func New(convRepo ConversationRepository, msgRepo MessageRepository, reqRepo RequestRepository, events EventPublisher) *Service {
	return &Service{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		reqRepo:  reqRepo,
		events:   events,
	}
}

// SendRequest creates a pending first-contact request. If the pair
// already shares a conversation there is nothing to gate and the
// existing conversation should be used instead.
func (s *Service) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*entity.MessageRequest, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, entity.ErrEmptyMessage
	}
	if senderID == receiverID {
		return nil, entity.ErrSelfRequest
	}

	// A duplicate pending request would surface twice in the
	// receiver's inbox; reuse the existing one.
	pending, err := s.reqRepo.HasPendingBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, entity.ErrRequestResolved
	}

	req := &entity.MessageRequest{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    text,
		Status:     entity.RequestStatusPending,
	}
	if err := s.reqRepo.Insert(ctx, req); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.RequestInserted(receiverID, req)
	}
	return req, nil
}

// PendingRequests lists pending requests addressed to the user
func (s *Service) PendingRequests(ctx context.Context, receiverID uuid.UUID) ([]entity.MessageRequest, error) {
	return s.reqRepo.ListPendingForReceiver(ctx, receiverID)
}

// GetRequest returns one request, or nil if it does not exist
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*entity.MessageRequest, error) {
	return s.reqRepo.GetByID(ctx, id)
}

// RespondToRequest resolves a pending request. Accepting ensures a
// conversation between the pair exists; an existing conversation is
// reused so repeated accepts never create duplicates. Declining has
// no side effects. A request that was already resolved (including by
// a concurrent response) yields ErrRequestResolved and no mutation.
func (s *Service) RespondToRequest(ctx context.Context, req *entity.MessageRequest, accept bool) (*entity.Conversation, error) {
	if req.Status != entity.RequestStatusPending {
		return nil, entity.ErrRequestResolved
	}

	if !accept {
		resolved, err := s.reqRepo.Resolve(ctx, req.ID, entity.RequestStatusDeclined)
		if err != nil {
			return nil, err
		}
		if !resolved {
			return nil, entity.ErrRequestResolved
		}
		return nil, nil
	}

	// Conversation first, then the status flip: if the flip loses a
	// race the conversation still exists for the winner (EnsureBetween
	// is idempotent), and no accepted request is ever left without one.
	conv, _, err := s.convRepo.EnsureBetween(ctx, req.SenderID, req.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("ensuring conversation: %w", err)
	}

	resolved, err := s.reqRepo.Resolve(ctx, req.ID, entity.RequestStatusAccepted)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, entity.ErrRequestResolved
	}

	return conv, nil
}

// Directory returns the user's conversation list, newest activity first
func (s *Service) Directory(ctx context.Context, userID uuid.UUID) ([]entity.ConversationView, error) {
	return s.convRepo.ListForUser(ctx, userID)
}

// Conversation returns one conversation with the other side's profile
// cards, for the header of an open chat screen.
func (s *Service) Conversation(ctx context.Context, conversationID, userID uuid.UUID) (*entity.ConversationView, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, entity.ErrConversationNotFound
	}

	participants, err := s.convRepo.OtherParticipants(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	return &entity.ConversationView{
		Conversation: *conv,
		Participants: participants,
	}, nil
}

// IsParticipant reports whether the user belongs to the conversation
func (s *Service) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return s.convRepo.IsParticipant(ctx, conversationID, userID)
}

// ListMessages returns a conversation's messages oldest first, then
// advances others' undelivered messages to delivered: fetching the
// stream is how a client receives them.
func (s *Service) ListMessages(ctx context.Context, conversationID, readerID uuid.UUID) ([]entity.Message, error) {
	messages, err := s.msgRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.MarkDelivered(ctx, conversationID, readerID); err != nil {
		return nil, err
	}

	return messages, nil
}

// SendMessageInput represents input for sending a message
type SendMessageInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	Type           entity.MessageType
	FileURL        string
	ReplyTo        *uuid.UUID
}

// SendMessage appends a message with status sent and fans it out to
// all participants. The owning conversation's updated_at is bumped
// atomically with the insert.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*entity.Message, error) {
	if in.Type == "" {
		in.Type = entity.MessageTypeText
	}
	if err := entity.ValidateMessage(in.Type, in.Content, in.FileURL); err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ID:             uuid.New(),
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Content:        strings.TrimSpace(in.Content),
		Type:           in.Type,
		Status:         entity.MessageStatusSent,
		FileURL:        in.FileURL,
		ReplyTo:        in.ReplyTo,
	}
	if err := s.msgRepo.Insert(ctx, msg); err != nil {
		return nil, err
	}

	s.publishToParticipants(ctx, in.ConversationID, func(ids []uuid.UUID) {
		s.events.MessageInserted(ids, msg)
	})

	return msg, nil
}

// MarkDelivered advances others' sent messages to delivered
func (s *Service) MarkDelivered(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.msgRepo.MarkDelivered(ctx, conversationID, readerID)
	if err != nil {
		return nil, err
	}
	s.publishStatus(ctx, conversationID, ids, entity.MessageStatusDelivered)
	return ids, nil
}

// MarkSeen advances all of others' unseen messages to seen
func (s *Service) MarkSeen(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.msgRepo.MarkSeen(ctx, conversationID, readerID)
	if err != nil {
		return nil, err
	}
	s.publishStatus(ctx, conversationID, ids, entity.MessageStatusSeen)
	return ids, nil
}

func (s *Service) publishStatus(ctx context.Context, conversationID uuid.UUID, ids []uuid.UUID, status entity.MessageStatus) {
	if len(ids) == 0 {
		return
	}
	s.publishToParticipants(ctx, conversationID, func(recipients []uuid.UUID) {
		s.events.MessageStatusUpdated(recipients, &entity.StatusUpdate{
			ConversationID: conversationID,
			MessageIDs:     ids,
			Status:         status,
		})
	})
}

func (s *Service) publishToParticipants(ctx context.Context, conversationID uuid.UUID, publish func([]uuid.UUID)) {
	if s.events == nil {
		return
	}
	ids, err := s.convRepo.ParticipantIDs(ctx, conversationID)
	if err != nil || len(ids) == 0 {
		return
	}
	publish(ids)
}
