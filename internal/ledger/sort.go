package ledger

// sortAliases maps the public sort field names to ledger columns. Only
// these fields are sortable; anything else is rejected before a query
// is issued.
var sortAliases = map[string]string{
	"description":       "descr",
	"amount":            "dest_amount",
	"dest_organization": "dest_organization",
	"dest_account":      "dest_account",
	"orig_organization": "orig_organization",
	"orig_account":      "orig_account",
	"created_at":        "created_at",
}

// Order is a resolved sort over a ledger column.
type Order struct {
	Column string
	Desc   bool
}

// ParseOrder resolves a public sort field name and direction into an
// Order. An empty field defaults to created_at descending, matching the
// newest-first listings. Direction is "asc" or "desc"; empty means
// ascending when a field was given.
func ParseOrder(field, direction string) (Order, error) {
	if field == "" {
		return Order{Column: "created_at", Desc: true}, nil
	}
	column, ok := sortAliases[field]
	if !ok {
		return Order{}, ErrUnknownSortField
	}
	switch direction {
	case "", "asc":
		return Order{Column: column}, nil
	case "desc":
		return Order{Column: column, Desc: true}, nil
	default:
		return Order{}, ErrBadSortDirection
	}
}
