package dao

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rustam/servhub/internal/domain/chat/entity"
)

// MessagePostgres implements message storage for PostgreSQL
type MessagePostgres struct {
	pool *pgxpool.Pool
}

// NewMessagePostgres creates a new PostgreSQL message repository
func NewMessagePostgres(pool *pgxpool.Pool) *MessagePostgres {
	return &MessagePostgres{pool: pool}
}

// Insert appends a message and bumps the conversation's updated_at in
// the same transaction, so directory ordering always tracks the latest
// message. The row's created_at is assigned here, by the database.
func (r *MessagePostgres) Insert(ctx context.Context, msg *entity.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var content, fileURL *string
	if msg.Content != "" {
		content = &msg.Content
	}
	if msg.FileURL != "" {
		fileURL = &msg.FileURL
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, type, status, file_url, reply_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		msg.ID, msg.ConversationID, msg.SenderID, content, msg.Type, msg.Status, fileURL, msg.ReplyTo,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE conversations SET updated_at = $2 WHERE id = $1`,
		msg.ConversationID, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}
	return nil
}

// ListByConversation returns all messages oldest first. Ties on
// created_at are broken by id so the order is stable across calls.
func (r *MessagePostgres) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]entity.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, content, type, status, file_url, reply_to, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []entity.Message
	for rows.Next() {
		var msg entity.Message
		var content, fileURL *string
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&content,
			&msg.Type,
			&msg.Status,
			&fileURL,
			&msg.ReplyTo,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		if content != nil {
			msg.Content = *content
		}
		if fileURL != nil {
			msg.FileURL = *fileURL
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// MarkDelivered advances others' messages from sent to delivered and
// returns the ids it touched. The status filter keeps the transition
// monotonic: delivered and seen rows are never rewritten.
func (r *MessagePostgres) MarkDelivered(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error) {
	return r.advanceStatus(ctx, conversationID, readerID,
		entity.MessageStatusDelivered, []entity.MessageStatus{entity.MessageStatusSent})
}

// MarkSeen advances others' messages from sent or delivered to seen,
// the terminal state, and returns the ids it touched.
func (r *MessagePostgres) MarkSeen(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error) {
	return r.advanceStatus(ctx, conversationID, readerID,
		entity.MessageStatusSeen, []entity.MessageStatus{entity.MessageStatusSent, entity.MessageStatusDelivered})
}

func (r *MessagePostgres) advanceStatus(
	ctx context.Context,
	conversationID, readerID uuid.UUID,
	to entity.MessageStatus,
	from []entity.MessageStatus,
) ([]uuid.UUID, error) {
	fromStatuses := make([]string, len(from))
	for i, s := range from {
		fromStatuses[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		UPDATE messages
		SET status = $3
		WHERE conversation_id = $1
		  AND sender_id <> $2
		  AND status = ANY($4)
		RETURNING id
	`, conversationID, readerID, to, fromStatuses)
	if err != nil {
		return nil, fmt.Errorf("advancing message status: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning message id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
