package ledger

import (
	"strings"
	"time"

	"github.com/parietal-io/djaodjin-saas/internal/models"
)

// Filter describes a scoped subset of the ledger. The zero value
// matches every transaction. A Filter is a query description, not a
// materialized set: the store may evaluate it several times for one
// request (once for the aggregate, once for the page). The two reads
// are logically consistent but not transactional, which is acceptable
// because the ledger is append-only.
type Filter struct {
	// StartAt is the inclusive lower bound on created_at; nil means
	// unbounded.
	StartAt *time.Time
	// EndsAt is the exclusive upper bound on created_at; nil means
	// unbounded.
	EndsAt *time.Time
	// Q is a case-insensitive free-text term matched against descr and
	// both organizations' full names.
	Q string
	// Selector is a case-insensitive account substring. For row
	// selection it matches either side's account. Aggregations restrict
	// each side's sum to rows where that side's account matches,
	// independently of the other side.
	Selector string
	// SubscriberOrg scopes to transactions where the organization
	// appears on either side.
	SubscriberOrg string
	// DestOrg scopes to transactions whose destination organization
	// matches exactly.
	DestOrg string
	// DestAccount scopes to transactions whose destination account
	// matches exactly.
	DestAccount string
	// PositiveOrigOnly keeps only rows with orig_amount > 0.
	PositiveOrigOnly bool
	// SettledOnly keeps only rows the processor has marked settled.
	SettledOnly bool
}

// Matches reports whether t satisfies the filter. It is the executable
// contract the SQL store implements; the SQL WHERE clauses and this
// predicate must agree.
func (f Filter) Matches(t *models.Transaction) bool {
	if f.StartAt != nil && t.CreatedAt.Before(*f.StartAt) {
		return false
	}
	if f.EndsAt != nil && !t.CreatedAt.Before(*f.EndsAt) {
		return false
	}
	if f.Q != "" && !f.matchesSearch(t) {
		return false
	}
	if f.Selector != "" &&
		!containsFold(t.OrigAccount, f.Selector) &&
		!containsFold(t.DestAccount, f.Selector) {
		return false
	}
	if f.SubscriberOrg != "" &&
		t.OrigOrganization != f.SubscriberOrg &&
		t.DestOrganization != f.SubscriberOrg {
		return false
	}
	if f.DestOrg != "" && t.DestOrganization != f.DestOrg {
		return false
	}
	if f.DestAccount != "" && t.DestAccount != f.DestAccount {
		return false
	}
	if f.PositiveOrigOnly && t.OrigAmount <= 0 {
		return false
	}
	if f.SettledOnly && t.SettledAt == nil {
		return false
	}
	return true
}

func (f Filter) matchesSearch(t *models.Transaction) bool {
	return containsFold(t.Descr, f.Q) ||
		containsFold(t.OrigFullName, f.Q) ||
		containsFold(t.DestFullName, f.Q)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
