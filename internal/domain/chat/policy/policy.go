package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/domain/chat/entity"
	"github.com/rustam/servhub/internal/domain/chat/service"
)

// ChatService defines the interface for the chat service
type ChatService interface {
	SendRequest(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*entity.MessageRequest, error)
	PendingRequests(ctx context.Context, receiverID uuid.UUID) ([]entity.MessageRequest, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*entity.MessageRequest, error)
	RespondToRequest(ctx context.Context, req *entity.MessageRequest, accept bool) (*entity.Conversation, error)
	Directory(ctx context.Context, userID uuid.UUID) ([]entity.ConversationView, error)
	Conversation(ctx context.Context, conversationID, userID uuid.UUID) (*entity.ConversationView, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	ListMessages(ctx context.Context, conversationID, readerID uuid.UUID) ([]entity.Message, error)
	SendMessage(ctx context.Context, in service.SendMessageInput) (*entity.Message, error)
	MarkDelivered(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error)
	MarkSeen(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error)
}

// Policy guards chat operations with caller authorization. Rows the
// caller may not touch are reported as not found, never as forbidden,
// so their existence does not leak.
type Policy struct {
	svc ChatService
}

// New creates a new chat policy
func New(svc ChatService) *Policy {
	return &Policy{svc: svc}
}

// SendMessageRequest creates a pending request from the caller
func (p *Policy) SendMessageRequest(ctx context.Context, callerID, receiverID uuid.UUID, text string) (*entity.MessageRequest, error) {
	return p.svc.SendRequest(ctx, callerID, receiverID, text)
}

// PendingRequests lists pending requests addressed to the caller
func (p *Policy) PendingRequests(ctx context.Context, callerID uuid.UUID) ([]entity.MessageRequest, error) {
	return p.svc.PendingRequests(ctx, callerID)
}

// RespondToMessageRequest resolves a pending request addressed to the
// caller. Requests addressed to someone else, like missing ones, come
// back as not found with no state touched.
func (p *Policy) RespondToMessageRequest(ctx context.Context, callerID, requestID uuid.UUID, accept bool) (*entity.Conversation, error) {
	req, err := p.svc.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.ReceiverID != callerID {
		return nil, entity.ErrRequestNotFound
	}

	return p.svc.RespondToRequest(ctx, req, accept)
}

// Directory returns the caller's conversation list
func (p *Policy) Directory(ctx context.Context, callerID uuid.UUID) ([]entity.ConversationView, error) {
	return p.svc.Directory(ctx, callerID)
}

// GetConversation returns one conversation of the caller's with its
// peer cards. Conversations of others look missing.
func (p *Policy) GetConversation(ctx context.Context, callerID, conversationID uuid.UUID) (*entity.ConversationView, error) {
	if err := p.requireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	return p.svc.Conversation(ctx, conversationID, callerID)
}

// ListMessages returns the messages of a conversation the caller
// participates in
func (p *Policy) ListMessages(ctx context.Context, callerID, conversationID uuid.UUID) ([]entity.Message, error) {
	if err := p.requireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	return p.svc.ListMessages(ctx, conversationID, callerID)
}

// SendMessage appends a message to a conversation the caller
// participates in
func (p *Policy) SendMessage(ctx context.Context, callerID uuid.UUID, in service.SendMessageInput) (*entity.Message, error) {
	if err := p.requireParticipant(ctx, in.ConversationID, callerID); err != nil {
		return nil, err
	}
	in.SenderID = callerID
	return p.svc.SendMessage(ctx, in)
}

// MarkDelivered acknowledges receipt of others' messages
func (p *Policy) MarkDelivered(ctx context.Context, callerID, conversationID uuid.UUID) ([]uuid.UUID, error) {
	if err := p.requireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	return p.svc.MarkDelivered(ctx, conversationID, callerID)
}

// MarkSeen marks all of others' messages in the conversation as seen
func (p *Policy) MarkSeen(ctx context.Context, callerID, conversationID uuid.UUID) ([]uuid.UUID, error) {
	if err := p.requireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	return p.svc.MarkSeen(ctx, conversationID, callerID)
}

func (p *Policy) requireParticipant(ctx context.Context, conversationID, callerID uuid.UUID) error {
	ok, err := p.svc.IsParticipant(ctx, conversationID, callerID)
	if err != nil {
		return err
	}
	if !ok {
		return entity.ErrConversationNotFound
	}
	return nil
}
