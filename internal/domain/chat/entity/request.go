package entity

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the lifecycle of a message request.
// A request transitions exactly once, from pending to a terminal state.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusDeclined RequestStatus = "declined"
)

// MessageRequest is a pending first-contact invitation between strangers
type MessageRequest struct {
	ID         uuid.UUID     `json:"id"`
	SenderID   uuid.UUID     `json:"sender_id"`
	ReceiverID uuid.UUID     `json:"receiver_id"`
	Message    string        `json:"message"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`

	Sender *Participant `json:"sender,omitempty"`
}
