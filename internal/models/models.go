package models

import "time"

// Organization is one party on a side of a ledger entry. Organization
// management lives in another service; this module only resolves slugs
// to display names.
type Organization struct {
	Slug     string `json:"slug"`
	FullName string `json:"full_name"`
}

// Transaction is a single atomic movement of value between exactly one
// (orig_account, orig_organization) pair and one (dest_account,
// dest_organization) pair. Rows are insert-only; corrections are new
// offsetting transactions, never edits.
//
// Amounts are integers in minor currency units. SettledAt is stamped by
// the external processor settlement feed for transfer rows and is the
// only column written after insert; it never changes the accounting
// content of the row.
type Transaction struct {
	ID               string
	CreatedAt        time.Time
	Descr            string
	OrigOrganization string
	OrigFullName     string
	OrigAccount      string
	OrigAmount       int64
	OrigUnit         string
	DestOrganization string
	DestFullName     string
	DestAccount      string
	DestAmount       int64
	DestUnit         string
	CreatedBy        string
	SettledAt        *time.Time
}
