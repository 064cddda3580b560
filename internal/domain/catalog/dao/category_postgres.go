package dao

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rustam/servhub/internal/domain/catalog/entity"
)

// CategoryPostgres implements category storage for PostgreSQL
type CategoryPostgres struct {
	pool *pgxpool.Pool
}

// NewCategoryPostgres creates a new PostgreSQL category repository
func NewCategoryPostgres(pool *pgxpool.Pool) *CategoryPostgres {
	return &CategoryPostgres{pool: pool}
}

// List returns all categories ordered by name
func (r *CategoryPostgres) List(ctx context.Context) ([]entity.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, icon, color, description, created_at
		FROM service_categories
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, nil
}

// GetByID retrieves a category by id
func (r *CategoryPostgres) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	var c entity.Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, icon, color, description, created_at
		FROM service_categories
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Description, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning category: %w", err)
	}

	return &c, nil
}
