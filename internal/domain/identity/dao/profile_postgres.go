package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rustam/servhub/internal/domain/identity/entity"
)

// ProfilePostgres implements profile storage for PostgreSQL
type ProfilePostgres struct {
	pool *pgxpool.Pool
}

// NewProfilePostgres creates a new PostgreSQL profile repository
func NewProfilePostgres(pool *pgxpool.Pool) *ProfilePostgres {
	return &ProfilePostgres{pool: pool}
}

const profileColumns = `
	id, full_name, avatar_url, bio, phone, location,
	is_provider, rating, is_online, last_seen, created_at, updated_at
`

// GetByID retrieves a profile by id
func (r *ProfilePostgres) GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// Search finds profiles whose name matches the query, case-insensitively
func (r *ProfilePostgres) Search(ctx context.Context, query string, limit int) ([]entity.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE full_name ILIKE '%' || $1 || '%'
		ORDER BY full_name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}
	defer rows.Close()

	var profiles []entity.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	return profiles, nil
}

// Update applies a partial edit and bumps updated_at
func (r *ProfilePostgres) Update(ctx context.Context, id uuid.UUID, upd entity.ProfileUpdate) (*entity.Profile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE profiles SET
			full_name  = COALESCE($2, full_name),
			avatar_url = COALESCE($3, avatar_url),
			bio        = COALESCE($4, bio),
			phone      = COALESCE($5, phone),
			location   = COALESCE($6, location),
			updated_at = now()
		WHERE id = $1
		RETURNING `+profileColumns,
		id, upd.FullName, upd.AvatarURL, upd.Bio, upd.Phone, upd.Location,
	)
	return scanProfile(row)
}

// SetPresence flips the online flag and stamps last_seen
func (r *ProfilePostgres) SetPresence(ctx context.Context, id uuid.UUID, online bool, seenAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE profiles SET is_online = $2, last_seen = $3, updated_at = now() WHERE id = $1`,
		id, online, seenAt,
	)
	if err != nil {
		return fmt.Errorf("updating presence: %w", err)
	}
	return nil
}

// SetProvider flips the service-provider flag
func (r *ProfilePostgres) SetProvider(ctx context.Context, id uuid.UUID, isProvider bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE profiles SET is_provider = $2, updated_at = now() WHERE id = $1`, id, isProvider)
	if err != nil {
		return fmt.Errorf("updating provider flag: %w", err)
	}
	return nil
}

// OnlineIDs returns ids of all profiles currently flagged online
func (r *ProfilePostgres) OnlineIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM profiles WHERE is_online`)
	if err != nil {
		return nil, fmt.Errorf("querying online profiles: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning profile id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func scanProfile(row pgx.Row) (*entity.Profile, error) {
	var p entity.Profile
	err := row.Scan(
		&p.ID,
		&p.FullName,
		&p.AvatarURL,
		&p.Bio,
		&p.Phone,
		&p.Location,
		&p.IsProvider,
		&p.Rating,
		&p.IsOnline,
		&p.LastSeen,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}

	return &p, nil
}
