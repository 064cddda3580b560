package entity

import "errors"

// Domain errors for chat
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message text cannot be empty")
	ErrMessageTooLong       = errors.New("message exceeds maximum length")
	ErrInvalidMessageType   = errors.New("invalid message type")
	ErrFileRequired         = errors.New("a file reference is required for this message type")
	ErrRequestNotFound      = errors.New("message request not found")
	ErrRequestResolved      = errors.New("message request already resolved")
	ErrSelfRequest          = errors.New("cannot send a message request to yourself")
	ErrRecipientNotFound    = errors.New("recipient not found")
)
