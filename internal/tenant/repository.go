package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository resolves tenants by id.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Tenant, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed tenant repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	var t Tenant
	err := r.db.QueryRow(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM tenants WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, ErrNotFound
	}
	if err != nil {
		return Tenant{}, err
	}
	if !t.IsActive {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}
