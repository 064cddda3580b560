package entity

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a message channel between two (or more) users
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Participant is a member of a conversation as shown in the directory
type Participant struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	IsOnline  bool      `json:"is_online"`
	LastSeen  time.Time `json:"last_seen"`
}

// ConversationView is one directory entry for a user: the conversation,
// the other participants, the most recent message if any, and how many
// messages from others the user has not received yet.
type ConversationView struct {
	Conversation
	Participants []Participant `json:"participants"`
	LastMessage  *Message      `json:"last_message,omitempty"`
	UnreadCount  int           `json:"unread_count"`
}

// PairKey is the canonical identity of a two-party conversation,
// independent of which side initiated it.
func PairKey(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}
