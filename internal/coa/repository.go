package coa

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the chart of accounts.
type Repository interface {
	ListGroups(ctx context.Context, tenantID uuid.UUID) ([]Group, error)
	ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]Account, error)
	GetGroup(ctx context.Context, tenantID, id uuid.UUID) (Group, error)
	CreateGroup(ctx context.Context, g Group) (Group, error)
	CreateAccount(ctx context.Context, a Account) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed chart of accounts store.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const groupColumns = `id, tenant_id, parent_id, level, name, COALESCE(statement_kind, ''), sort_order, created_at, updated_at`

func scanGroup(row pgx.Row) (Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.TenantID, &g.ParentID, &g.Level, &g.Name, &g.StatementKind, &g.SortOrder, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *repository) ListGroups(ctx context.Context, tenantID uuid.UUID) ([]Group, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+groupColumns+` FROM coa_groups WHERE tenant_id = $1 ORDER BY sort_order, name`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *repository) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, tenant_id, detailed_group_id, code, name, type, is_active, created_at, updated_at
		 FROM accounts WHERE tenant_id = $1 ORDER BY code`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.TenantID, &a.DetailedGroupID, &a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) GetGroup(ctx context.Context, tenantID, id uuid.UUID) (Group, error) {
	g, err := scanGroup(r.db.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM coa_groups WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	return g, err
}

func (r *repository) CreateGroup(ctx context.Context, g Group) (Group, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO coa_groups (id, tenant_id, parent_id, level, name, statement_kind, sort_order, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, now(), now())
		 RETURNING created_at, updated_at`,
		g.ID, g.TenantID, g.ParentID, g.Level, g.Name, g.StatementKind, g.SortOrder,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *repository) CreateAccount(ctx context.Context, a Account) (Account, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO accounts (id, tenant_id, detailed_group_id, code, name, type, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		 RETURNING created_at, updated_at`,
		a.ID, a.TenantID, a.DetailedGroupID, a.Code, a.Name, a.Type, a.IsActive,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return a, err
}
