package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rustam/servhub/internal/domain/direct/entity"
)

// MessagePostgres implements direct-message storage for PostgreSQL
type MessagePostgres struct {
	pool *pgxpool.Pool
}

// NewMessagePostgres creates a new PostgreSQL direct-message repository
func NewMessagePostgres(pool *pgxpool.Pool) *MessagePostgres {
	return &MessagePostgres{pool: pool}
}

// Insert stores a direct message; created_at is assigned by the database
func (r *MessagePostgres) Insert(ctx context.Context, msg *entity.Message) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO direct_messages (id, sender_id, receiver_id, content, is_read)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.IsRead).Scan(&msg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return entity.ErrRecipientNotFound
		}
		return fmt.Errorf("inserting direct message: %w", err)
	}
	return nil
}

// ListBetween returns both directions of a pair's traffic, oldest first
func (r *MessagePostgres) ListBetween(ctx context.Context, a, b uuid.UUID) ([]entity.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, content, is_read, created_at
		FROM direct_messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`, a, b)
	if err != nil {
		return nil, fmt.Errorf("querying direct messages: %w", err)
	}
	defer rows.Close()

	var messages []entity.Message
	for rows.Next() {
		var msg entity.Message
		err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Content,
			&msg.IsRead,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning direct message row: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// MarkAllRead flips is_read on every unread message from peer to
// reader and returns the ids it touched.
func (r *MessagePostgres) MarkAllRead(ctx context.Context, readerID, peerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE direct_messages
		SET is_read = TRUE
		WHERE receiver_id = $1 AND sender_id = $2 AND NOT is_read
		RETURNING id
	`, readerID, peerID)
	if err != nil {
		return nil, fmt.Errorf("marking direct messages read: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning direct message id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
