package dao

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rustam/servhub/internal/domain/catalog/entity"
)

const serviceColumns = `id, user_id, category_id, title, description, price, price_type,
	location, images, availability, created_at, updated_at`

// ServicePostgres implements listing storage for PostgreSQL
type ServicePostgres struct {
	pool *pgxpool.Pool
}

// NewServicePostgres creates a new PostgreSQL listing repository
func NewServicePostgres(pool *pgxpool.Pool) *ServicePostgres {
	return &ServicePostgres{pool: pool}
}

// Insert stores a new listing and fills in the generated timestamps
func (r *ServicePostgres) Insert(ctx context.Context, svc *entity.Service) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, user_id, category_id, title, description, price,
			price_type, location, images, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, svc.ID, svc.UserID, svc.CategoryID, svc.Title, svc.Description, svc.Price,
		svc.PriceType, svc.Location, svc.Images, svc.Availability,
	).Scan(&svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting service: %w", err)
	}

	return nil
}

// GetByID retrieves a listing by id
func (r *ServicePostgres) GetByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, id)

	svc, err := scanService(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return svc, nil
}

// ServiceFilter narrows a listing search; zero values mean no constraint
type ServiceFilter struct {
	CategoryID uuid.UUID
	UserID     uuid.UUID
	Query      string
	Limit      int
	Offset     int
}

// List returns available listings matching the filter, newest first
func (r *ServicePostgres) List(ctx context.Context, f ServiceFilter) ([]entity.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE availability = TRUE`
	args := []any{}

	if f.CategoryID != uuid.Nil {
		args = append(args, f.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.UserID != uuid.Nil {
		args = append(args, f.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	query += " ORDER BY created_at DESC"
	args = append(args, f.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	var services []entity.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *svc)
	}

	return services, nil
}

// Update applies a partial edit; only the owner's row is touched.
// Returns false when the listing does not exist or belongs to someone else.
func (r *ServicePostgres) Update(ctx context.Context, id, ownerID uuid.UUID, upd entity.ServiceUpdate) (*entity.Service, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE services
		SET title        = COALESCE($3, title),
			description  = COALESCE($4, description),
			price        = COALESCE($5, price),
			price_type   = COALESCE($6, price_type),
			location     = COALESCE($7, location),
			images       = COALESCE($8, images),
			availability = COALESCE($9, availability),
			updated_at   = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+serviceColumns+`
	`, id, ownerID, upd.Title, upd.Description, upd.Price, upd.PriceType,
		upd.Location, upd.Images, upd.Availability)

	svc, err := scanService(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return svc, nil
}

// Delete removes the owner's listing. Returns false when nothing was deleted.
func (r *ServicePostgres) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM services
		WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("deleting service: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CountByOwner reports how many listings a provider has
func (r *ServicePostgres) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM services WHERE user_id = $1
	`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting services: %w", err)
	}

	return n, nil
}

func scanService(row pgx.Row) (*entity.Service, error) {
	var svc entity.Service
	err := row.Scan(
		&svc.ID, &svc.UserID, &svc.CategoryID, &svc.Title, &svc.Description,
		&svc.Price, &svc.PriceType, &svc.Location, &svc.Images,
		&svc.Availability, &svc.CreatedAt, &svc.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning service row: %w", err)
	}

	return &svc, nil
}
