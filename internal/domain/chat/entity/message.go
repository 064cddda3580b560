package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType represents the payload kind of a message
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
	MessageTypeAudio MessageType = "audio"
	MessageTypeFile  MessageType = "file"
)

// MessageStatus represents delivery progress. Transitions are
// monotonic: sent -> delivered -> seen, never backwards.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusSeen      MessageStatus = "seen"
)

// Message is one unit of communication inside a conversation
type Message struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	SenderID       uuid.UUID     `json:"sender_id"`
	Content        string        `json:"content,omitempty"`
	Type           MessageType   `json:"type"`
	Status         MessageStatus `json:"status"`
	FileURL        string        `json:"file_url,omitempty"`
	ReplyTo        *uuid.UUID    `json:"reply_to,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// MaxMessageLength is the maximum length of a text message
const MaxMessageLength = 2000

// StatusUpdate describes a batch status transition inside one conversation
type StatusUpdate struct {
	ConversationID uuid.UUID     `json:"conversation_id"`
	MessageIDs     []uuid.UUID   `json:"message_ids"`
	Status         MessageStatus `json:"status"`
}

// ValidMessageType reports whether t is a known payload kind
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeFile:
		return true
	}
	return false
}

// ValidateMessage checks content against the payload kind: text needs
// non-empty trimmed content, everything else needs a file reference.
func ValidateMessage(t MessageType, content, fileURL string) error {
	if !ValidMessageType(t) {
		return ErrInvalidMessageType
	}
	if t == MessageTypeText {
		if strings.TrimSpace(content) == "" {
			return ErrEmptyMessage
		}
		if len(content) > MaxMessageLength {
			return ErrMessageTooLong
		}
		return nil
	}
	if fileURL == "" {
		return ErrFileRequired
	}
	return nil
}
