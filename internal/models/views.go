package models

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
)

// TransactionView is the serialized projection of a ledger entry.
// IsDebit and Amount are derived relative to the organization the
// request was scoped to: a transaction is a debit for that organization
// when it is the origin (value flowing out).
type TransactionView struct {
	CreatedAt        time.Time `json:"created_at"`
	Description      string    `json:"description"`
	Amount           string    `json:"amount"`
	IsDebit          bool      `json:"is_debit"`
	OrigAccount      string    `json:"orig_account"`
	OrigOrganization string    `json:"orig_organization"`
	OrigAmount       int64     `json:"orig_amount"`
	OrigUnit         string    `json:"orig_unit"`
	DestAccount      string    `json:"dest_account"`
	DestOrganization string    `json:"dest_organization"`
	DestAmount       int64     `json:"dest_amount"`
	DestUnit         string    `json:"dest_unit"`
}

// NewTransactionView projects t relative to relOrg, the organization
// slug the listing was scoped to. The global ledger listing has no
// organization context and passes an empty slug, in which case IsDebit
// is always false.
func NewTransactionView(t *Transaction, relOrg string) TransactionView {
	isDebit := relOrg != "" && t.OrigOrganization == relOrg
	return TransactionView{
		CreatedAt:        t.CreatedAt,
		Description:      t.Descr,
		Amount:           displayAmount(t.DestAmount, t.DestUnit, isDebit),
		IsDebit:          isDebit,
		OrigAccount:      t.OrigAccount,
		OrigOrganization: t.OrigOrganization,
		OrigAmount:       t.OrigAmount,
		OrigUnit:         t.OrigUnit,
		DestAccount:      t.DestAccount,
		DestOrganization: t.DestOrganization,
		DestAmount:       t.DestAmount,
		DestUnit:         t.DestUnit,
	}
}

// displayAmount renders a minor-unit amount as a currency string,
// wrapped in parentheses when the row is a debit for the scoped
// organization, e.g. "($356.00)".
func displayAmount(amount int64, unit string, debit bool) string {
	display := money.New(amount, strings.ToUpper(unit)).Display()
	if debit {
		return "(" + display + ")"
	}
	return display
}
