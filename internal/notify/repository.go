package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists and lists notifications.
type Repository interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, tenantID uuid.UUID, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed notification store.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n Notification) (Notification, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO notifications (tenant_id, kind, title, body, file_path, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 RETURNING id, created_at`,
		n.TenantID, n.Kind, n.Title, n.Body, n.FilePath,
	).Scan(&n.ID, &n.CreatedAt)
	return n, err
}

func (r *repository) ListForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, tenant_id, kind, title, body, COALESCE(file_path, ''), read_at, created_at
		 FROM notifications WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.TenantID, &n.Kind, &n.Title, &n.Body, &n.FilePath, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, tenantID uuid.UUID, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET read_at = now() WHERE id = $1 AND tenant_id = $2 AND read_at IS NULL`,
		id, tenantID,
	)
	return err
}
