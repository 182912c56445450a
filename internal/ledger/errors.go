package ledger

import "errors"

var (
	// ErrMismatchedUnits is returned when an aggregation would add or
	// subtract amounts denominated in different units. Mixed-unit
	// aggregation is undefined and never silently summed.
	ErrMismatchedUnits = errors.New("mismatched units in aggregation")

	// ErrUnknownSortField is returned when the requested sort field is
	// not in the allow-list of sortable fields.
	ErrUnknownSortField = errors.New("unknown sort field")

	// ErrBadSortDirection is returned when the sort direction is
	// neither "asc" nor "desc".
	ErrBadSortDirection = errors.New("sort direction must be asc or desc")

	// ErrOrganizationNotFound is returned when an organization slug in
	// the request path does not resolve.
	ErrOrganizationNotFound = errors.New("organization not found")
)
