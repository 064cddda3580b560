package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message is a peer-to-peer message addressed purely by the
// sender/receiver pair, outside any conversation. First contact on
// this channel is unmediated: there is no request gate.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Domain errors for direct messages
var (
	ErrEmptyMessage      = errors.New("message text cannot be empty")
	ErrSelfMessage       = errors.New("cannot message yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
)
