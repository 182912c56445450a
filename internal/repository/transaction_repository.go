package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/parietal-io/djaodjin-saas/internal/ledger"
	"github.com/parietal-io/djaodjin-saas/internal/models"
)

// payableAccount is the ledger account tracking what an organization
// owes on its statement.
const payableAccount = "Payable"

// TransactionRepository is the PostgreSQL ledger store. All writes are
// inserts; rows are never updated or deleted through this repository.
type TransactionRepository struct {
	db          *sql.DB
	defaultUnit string
}

func NewTransactionRepository(db *sql.DB, defaultUnit string) *TransactionRepository {
	return &TransactionRepository{db: db, defaultUnit: defaultUnit}
}

const selectColumns = `
	t.id, t.created_at, t.descr,
	t.orig_organization, COALESCE(oo.full_name, t.orig_organization),
	t.orig_account, t.orig_amount, t.orig_unit,
	t.dest_organization, COALESCE(dd.full_name, t.dest_organization),
	t.dest_account, t.dest_amount, t.dest_unit,
	t.created_by, t.settled_at`

const fromClause = `
	FROM transactions t
	LEFT JOIN organizations oo ON oo.slug = t.orig_organization
	LEFT JOIN organizations dd ON dd.slug = t.dest_organization`

// selectorSide controls which account column a Filter's selector is
// matched against. Row selection matches either side; each aggregation
// matches only its own side.
type selectorSide int

const (
	selectorBothSides selectorSide = iota
	selectorOrigSide
	selectorDestSide
)

// buildWhere renders f as SQL predicates. Must stay in agreement with
// ledger.Filter.Matches.
func buildWhere(f ledger.Filter, side selectorSide) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.StartAt != nil {
		conds = append(conds, "t.created_at >= "+arg(*f.StartAt))
	}
	if f.EndsAt != nil {
		conds = append(conds, "t.created_at < "+arg(*f.EndsAt))
	}
	if f.Q != "" {
		pattern := "%" + f.Q + "%"
		conds = append(conds, fmt.Sprintf(
			"(t.descr ILIKE %s OR oo.full_name ILIKE %s OR dd.full_name ILIKE %s)",
			arg(pattern), arg(pattern), arg(pattern)))
	}
	if f.Selector != "" {
		pattern := "%" + f.Selector + "%"
		switch side {
		case selectorOrigSide:
			conds = append(conds, "t.orig_account ILIKE "+arg(pattern))
		case selectorDestSide:
			conds = append(conds, "t.dest_account ILIKE "+arg(pattern))
		default:
			conds = append(conds, fmt.Sprintf(
				"(t.orig_account ILIKE %s OR t.dest_account ILIKE %s)",
				arg(pattern), arg(pattern)))
		}
	}
	if f.SubscriberOrg != "" {
		conds = append(conds, fmt.Sprintf(
			"(t.orig_organization = %s OR t.dest_organization = %s)",
			arg(f.SubscriberOrg), arg(f.SubscriberOrg)))
	}
	if f.DestOrg != "" {
		conds = append(conds, "t.dest_organization = "+arg(f.DestOrg))
	}
	if f.DestAccount != "" {
		conds = append(conds, "t.dest_account = "+arg(f.DestAccount))
	}
	if f.PositiveOrigOnly {
		conds = append(conds, "t.orig_amount > 0")
	}
	if f.SettledOnly {
		conds = append(conds, "t.settled_at IS NOT NULL")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *TransactionRepository) Select(ctx context.Context, f ledger.Filter, order ledger.Order, limit, offset int) ([]models.Transaction, error) {
	where, args := buildWhere(f, selectorBothSides)

	direction := "ASC"
	if order.Desc {
		direction = "DESC"
	}
	// order.Column comes from the sort allow-list, never from raw input.
	query := fmt.Sprintf("SELECT %s %s%s ORDER BY t.%s %s, t.id ASC LIMIT $%d OFFSET $%d",
		selectColumns, fromClause, where, order.Column, direction, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var settledAt sql.NullTime
		if err := rows.Scan(
			&t.ID, &t.CreatedAt, &t.Descr,
			&t.OrigOrganization, &t.OrigFullName,
			&t.OrigAccount, &t.OrigAmount, &t.OrigUnit,
			&t.DestOrganization, &t.DestFullName,
			&t.DestAccount, &t.DestAmount, &t.DestUnit,
			&t.CreatedBy, &settledAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if settledAt.Valid {
			t.SettledAt = &settledAt.Time
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) Count(ctx context.Context, f ledger.Filter) (int, error) {
	where, args := buildWhere(f, selectorBothSides)
	query := "SELECT COUNT(*)" + fromClause + where

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (r *TransactionRepository) SumOrigAmount(ctx context.Context, f ledger.Filter) (ledger.Totals, error) {
	return r.sum(ctx, f, selectorOrigSide, "orig_amount", "orig_unit")
}

func (r *TransactionRepository) SumDestAmount(ctx context.Context, f ledger.Filter) (ledger.Totals, error) {
	return r.sum(ctx, f, selectorDestSide, "dest_amount", "dest_unit")
}

// sum aggregates one side of the filtered set in SQL. A set spanning
// more than one distinct unit is an error, never an implicit sum.
func (r *TransactionRepository) sum(ctx context.Context, f ledger.Filter, side selectorSide, amountCol, unitCol string) (ledger.Totals, error) {
	where, args := buildWhere(f, side)
	query := fmt.Sprintf(
		"SELECT COALESCE(SUM(t.%s), 0), COUNT(DISTINCT t.%s), COALESCE(MAX(t.%s), $%d)",
		amountCol, unitCol, unitCol, len(args)+1) + fromClause + where
	args = append([]any{}, args...)
	args = append(args, r.defaultUnit)

	var totals ledger.Totals
	var units int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&totals.Amount, &units, &totals.Unit); err != nil {
		return ledger.Totals{}, fmt.Errorf("failed to sum %s: %w", amountCol, err)
	}
	if units > 1 {
		return ledger.Totals{}, ledger.ErrMismatchedUnits
	}
	return totals, nil
}

// StatementBalance is the store's balance rule: the destination sum
// minus the origin sum over the organization's Payable account rows.
func (r *TransactionRepository) StatementBalance(ctx context.Context, organization string) (ledger.Totals, error) {
	dest, err := r.sideTotals(ctx, organization, "dest")
	if err != nil {
		return ledger.Totals{}, err
	}
	orig, err := r.sideTotals(ctx, organization, "orig")
	if err != nil {
		return ledger.Totals{}, err
	}
	return ledger.Balance(dest, orig)
}

func (r *TransactionRepository) sideTotals(ctx context.Context, organization, side string) (ledger.Totals, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(%[1]s_amount), 0), COUNT(DISTINCT %[1]s_unit), COALESCE(MAX(%[1]s_unit), $1)
		FROM transactions
		WHERE %[1]s_organization = $2 AND %[1]s_account = $3`, side)

	var totals ledger.Totals
	var units int
	err := r.db.QueryRowContext(ctx, query, r.defaultUnit, organization, payableAccount).
		Scan(&totals.Amount, &units, &totals.Unit)
	if err != nil {
		return ledger.Totals{}, fmt.Errorf("failed to compute statement balance: %w", err)
	}
	if units > 1 {
		return ledger.Totals{}, ledger.ErrMismatchedUnits
	}
	return totals, nil
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, created_at, descr,
			orig_organization, orig_account, orig_amount, orig_unit,
			dest_organization, dest_account, dest_amount, dest_unit,
			created_by, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	var settledAt sql.NullTime
	if t.SettledAt != nil {
		settledAt = sql.NullTime{Time: *t.SettledAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.CreatedAt, t.Descr,
		t.OrigOrganization, t.OrigAccount, t.OrigAmount, t.OrigUnit,
		t.DestOrganization, t.DestAccount, t.DestAmount, t.DestUnit,
		t.CreatedBy, settledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}
