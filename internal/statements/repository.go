package statements

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BalanceSource supplies pre-aggregated, pre-joined account balances
// for one tenant and window. The assembler only groups and rolls up
// what it is given; computing the balances is this layer's job.
type BalanceSource interface {
	BalancesAsOf(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]AccountLine, error)
	BalancesForPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]AccountLine, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed balance source.
func NewRepository(db *pgxpool.Pool) BalanceSource {
	return &repository{db: db}
}

// Ancestors are LEFT JOINed on purpose: a broken chain comes back as an
// empty name and fails the report as an integrity error instead of the
// account silently vanishing from the totals.
const balanceQuery = `
SELECT a.id,
       a.code,
       a.name,
       a.type,
       COALESCE(SUM(jl.debit - jl.credit), 0)::text AS balance,
       a.detailed_group_id,
       COALESCE(dg.name, '')  AS detailed_group,
       COALESCE(seg.name, '') AS sub_element_group,
       COALESCE(eg.name, '')  AS element_group,
       COALESCE(mg.statement_kind, '') AS main_group
FROM accounts a
LEFT JOIN coa_groups dg  ON dg.id = a.detailed_group_id AND dg.level = 'detailed_group'
LEFT JOIN coa_groups seg ON seg.id = dg.parent_id AND seg.level = 'sub_element_group'
LEFT JOIN coa_groups eg  ON eg.id = seg.parent_id AND eg.level = 'element_group'
LEFT JOIN coa_groups mg  ON mg.id = eg.parent_id AND mg.level = 'main_group'
LEFT JOIN journal_lines jl   ON jl.account_id = a.id
LEFT JOIN journal_entries je ON je.id = jl.journal_id
WHERE a.tenant_id = $1
  AND (jl.id IS NULL OR (je.status = 'POSTED' AND je.entry_date >= $2 AND je.entry_date <= $3))
GROUP BY a.id, a.code, a.name, a.type, a.detailed_group_id, dg.name, seg.name, eg.name, mg.statement_kind
ORDER BY a.code`

func (r *repository) BalancesAsOf(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]AccountLine, error) {
	// Point-in-time snapshot: everything posted up to and including asOf.
	return r.query(ctx, tenantID, time.Time{}, asOf)
}

func (r *repository) BalancesForPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]AccountLine, error) {
	return r.query(ctx, tenantID, from, to)
}

func (r *repository) query(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]AccountLine, error) {
	lower := from
	if lower.IsZero() {
		lower = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	rows, err := r.db.Query(ctx, balanceQuery, tenantID, lower, to)
	if err != nil {
		return nil, fmt.Errorf("statements: query balances: %w", err)
	}
	defer rows.Close()

	var lines []AccountLine
	for rows.Next() {
		var line AccountLine
		var raw string
		err := rows.Scan(
			&line.AccountID,
			&line.Code,
			&line.Name,
			&line.Type,
			&raw,
			&line.DetailedGroupID,
			&line.DetailedGroup,
			&line.SubElementGroup,
			&line.ElementGroup,
			&line.MainGroup,
		)
		if err != nil {
			return nil, fmt.Errorf("statements: scan balance row: %w", err)
		}
		// Malformed numerics are rejected here, before the engine runs.
		balance, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("statements: account %s: malformed balance %q: %w", line.Code, raw, err)
		}
		line.Balance = balance
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
