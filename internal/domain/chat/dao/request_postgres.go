package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rustam/servhub/internal/domain/chat/entity"
)

// RequestPostgres implements message-request storage for PostgreSQL
type RequestPostgres struct {
	pool *pgxpool.Pool
}

// NewRequestPostgres creates a new PostgreSQL message-request repository
func NewRequestPostgres(pool *pgxpool.Pool) *RequestPostgres {
	return &RequestPostgres{pool: pool}
}

// Insert stores a pending request
func (r *RequestPostgres) Insert(ctx context.Context, req *entity.MessageRequest) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO message_requests (id, sender_id, receiver_id, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, req.ID, req.SenderID, req.ReceiverID, req.Message, req.Status).Scan(&req.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return entity.ErrRecipientNotFound
		}
		return fmt.Errorf("inserting message request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by id
func (r *RequestPostgres) GetByID(ctx context.Context, id uuid.UUID) (*entity.MessageRequest, error) {
	var req entity.MessageRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, sender_id, receiver_id, message, status, created_at
		FROM message_requests
		WHERE id = $1
	`, id).Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Message, &req.Status, &req.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning message request: %w", err)
	}

	return &req, nil
}

// ListPendingForReceiver returns pending requests addressed to the
// user, newest first, with the sender's profile card attached.
func (r *RequestPostgres) ListPendingForReceiver(ctx context.Context, receiverID uuid.UUID) ([]entity.MessageRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT mr.id, mr.sender_id, mr.receiver_id, mr.message, mr.status, mr.created_at,
		       p.full_name, p.avatar_url, p.is_online, p.last_seen
		FROM message_requests mr
		JOIN profiles p ON p.id = mr.sender_id
		WHERE mr.receiver_id = $1 AND mr.status = 'pending'
		ORDER BY mr.created_at DESC
	`, receiverID)
	if err != nil {
		return nil, fmt.Errorf("querying message requests: %w", err)
	}
	defer rows.Close()

	var requests []entity.MessageRequest
	for rows.Next() {
		var req entity.MessageRequest
		var sender entity.Participant
		err := rows.Scan(
			&req.ID, &req.SenderID, &req.ReceiverID, &req.Message, &req.Status, &req.CreatedAt,
			&sender.FullName, &sender.AvatarURL, &sender.IsOnline, &sender.LastSeen,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning message request row: %w", err)
		}
		sender.ID = req.SenderID
		req.Sender = &sender
		requests = append(requests, req)
	}

	return requests, nil
}

// HasPendingBetween reports whether a pending request already exists
// from sender to receiver.
func (r *RequestPostgres) HasPendingBetween(ctx context.Context, senderID, receiverID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM message_requests
			WHERE sender_id = $1 AND receiver_id = $2 AND status = 'pending'
		)
	`, senderID, receiverID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking pending request: %w", err)
	}
	return exists, nil
}

// Resolve transitions a pending request to a terminal status. The
// conditional update arbitrates concurrent responses: exactly one
// caller observes resolved=true, later ones get false.
func (r *RequestPostgres) Resolve(ctx context.Context, id uuid.UUID, status entity.RequestStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE message_requests
		SET status = $2
		WHERE id = $1 AND status = 'pending'
	`, id, status)
	if err != nil {
		return false, fmt.Errorf("resolving message request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
