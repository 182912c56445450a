package ledger

import (
	"context"

	"github.com/parietal-io/djaodjin-saas/internal/models"
)

// Store is the durable ledger of transactions. Implementations are
// append-only: Create is the only write and recorded rows are never
// mutated.
//
// Select and Count apply a Filter's selector to either side's account.
// SumOrigAmount and SumDestAmount restrict the selector to their own
// side's account column, so the two sums of a balance are filtered
// independently.
type Store interface {
	// Select returns one ordered page of transactions matching f.
	Select(ctx context.Context, f Filter, order Order, limit, offset int) ([]models.Transaction, error)

	// Count returns the number of rows matching f across all pages.
	Count(ctx context.Context, f Filter) (int, error)

	// SumOrigAmount sums orig_amount over rows matching f, with the
	// selector applied to orig_account only.
	SumOrigAmount(ctx context.Context, f Filter) (Totals, error)

	// SumDestAmount sums dest_amount over rows matching f, with the
	// selector applied to dest_account only.
	SumDestAmount(ctx context.Context, f Filter) (Totals, error)

	// StatementBalance computes the running balance of an
	// organization's statement using the store's own balance rule.
	StatementBalance(ctx context.Context, organization string) (Totals, error)

	// Create records a new transaction.
	Create(ctx context.Context, t *models.Transaction) error
}
