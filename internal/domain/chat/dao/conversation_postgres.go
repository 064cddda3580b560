package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rustam/servhub/internal/domain/chat/entity"
)

// ConversationPostgres implements conversation storage for PostgreSQL
type ConversationPostgres struct {
	pool *pgxpool.Pool
}

// NewConversationPostgres creates a new PostgreSQL conversation repository
func NewConversationPostgres(pool *pgxpool.Pool) *ConversationPostgres {
	return &ConversationPostgres{pool: pool}
}

// EnsureBetween returns the two-party conversation for the pair,
// creating it (with both participant rows) if none exists. The unique
// pair key makes concurrent calls converge on a single conversation.
func (r *ConversationPostgres) EnsureBetween(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, bool, error) {
	pairKey := entity.PairKey(a, b)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var conv entity.Conversation
	created := true
	err = tx.QueryRow(ctx, `
		INSERT INTO conversations (id, pair_key)
		VALUES ($1, $2)
		ON CONFLICT (pair_key) DO NOTHING
		RETURNING id, created_at, updated_at
	`, uuid.New(), pairKey).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err == pgx.ErrNoRows {
		// Lost the race or the pair already talked; reuse the existing row.
		created = false
		err = tx.QueryRow(ctx,
			`SELECT id, created_at, updated_at FROM conversations WHERE pair_key = $1`,
			pairKey,
		).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	}
	if err != nil {
		return nil, false, fmt.Errorf("ensuring conversation: %w", err)
	}

	if created {
		_, err = tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2), ($1, $3)
			ON CONFLICT DO NOTHING
		`, conv.ID, a, b)
		if err != nil {
			return nil, false, fmt.Errorf("inserting participants: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing tx: %w", err)
	}

	return &conv, created, nil
}

// GetByID retrieves a conversation by id
func (r *ConversationPostgres) GetByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.pool.QueryRow(ctx,
		`SELECT id, created_at, updated_at FROM conversations WHERE id = $1`, id,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	return &conv, nil
}

// IsParticipant reports whether the user belongs to the conversation
func (r *ConversationPostgres) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)
	`, conversationID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking participant: %w", err)
	}
	return exists, nil
}

// ParticipantIDs returns the user ids of all participants
func (r *ConversationPostgres) ParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = $1`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying participants: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// ListForUser builds the conversation directory for a user: every
// conversation they participate in, newest activity first, each with
// the other participants, the latest message and the unread count
// (messages from others still in status 'sent').
func (r *ConversationPostgres) ListForUser(ctx context.Context, userID uuid.UUID) ([]entity.ConversationView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.created_at, c.updated_at,
		       m.id, m.sender_id, m.content, m.type, m.status, m.file_url, m.reply_to, m.created_at,
		       (
		           SELECT COUNT(*) FROM messages u
		           WHERE u.conversation_id = c.id
		             AND u.sender_id <> $1
		             AND u.status = 'sent'
		       ) AS unread
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
		LEFT JOIN LATERAL (
		    SELECT id, sender_id, content, type, status, file_url, reply_to, created_at
		    FROM messages
		    WHERE conversation_id = c.id
		    ORDER BY created_at DESC, id DESC
		    LIMIT 1
		) m ON TRUE
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var views []entity.ConversationView
	for rows.Next() {
		var v entity.ConversationView
		var (
			msgID      *uuid.UUID
			senderID   *uuid.UUID
			content    *string
			msgType    *string
			msgStatus  *string
			fileURL    *string
			replyTo    *uuid.UUID
			msgCreated *time.Time
		)
		err := rows.Scan(
			&v.ID, &v.CreatedAt, &v.UpdatedAt,
			&msgID, &senderID, &content, &msgType, &msgStatus, &fileURL, &replyTo, &msgCreated,
			&v.UnreadCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}

		if msgID != nil {
			msg := entity.Message{
				ID:             *msgID,
				ConversationID: v.Conversation.ID,
				SenderID:       *senderID,
				Type:           entity.MessageType(*msgType),
				Status:         entity.MessageStatus(*msgStatus),
				ReplyTo:        replyTo,
				CreatedAt:      *msgCreated,
			}
			if content != nil {
				msg.Content = *content
			}
			if fileURL != nil {
				msg.FileURL = *fileURL
			}
			v.LastMessage = &msg
		}

		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}

	if len(views) == 0 {
		return views, nil
	}

	// Attach the other participants' profile cards in one pass.
	convIDs := make([]uuid.UUID, len(views))
	for i := range views {
		convIDs[i] = views[i].Conversation.ID
	}

	prows, err := r.pool.Query(ctx, `
		SELECT cp.conversation_id, p.id, p.full_name, p.avatar_url, p.is_online, p.last_seen
		FROM conversation_participants cp
		JOIN profiles p ON p.id = cp.user_id
		WHERE cp.conversation_id = ANY($1) AND cp.user_id <> $2
	`, convIDs, userID)
	if err != nil {
		return nil, fmt.Errorf("querying participant profiles: %w", err)
	}
	defer prows.Close()

	byConv := make(map[uuid.UUID][]entity.Participant, len(views))
	for prows.Next() {
		var convID uuid.UUID
		var p entity.Participant
		if err := prows.Scan(&convID, &p.ID, &p.FullName, &p.AvatarURL, &p.IsOnline, &p.LastSeen); err != nil {
			return nil, fmt.Errorf("scanning participant profile: %w", err)
		}
		byConv[convID] = append(byConv[convID], p)
	}

	for i := range views {
		views[i].Participants = byConv[views[i].Conversation.ID]
	}

	return views, nil
}

// OtherParticipants returns profile cards for everyone except the user
func (r *ConversationPostgres) OtherParticipants(ctx context.Context, conversationID, userID uuid.UUID) ([]entity.Participant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.full_name, p.avatar_url, p.is_online, p.last_seen
		FROM conversation_participants cp
		JOIN profiles p ON p.id = cp.user_id
		WHERE cp.conversation_id = $1 AND cp.user_id <> $2
	`, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying participant profiles: %w", err)
	}
	defer rows.Close()

	var participants []entity.Participant
	for rows.Next() {
		var p entity.Participant
		if err := rows.Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.IsOnline, &p.LastSeen); err != nil {
			return nil, fmt.Errorf("scanning participant profile: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}
