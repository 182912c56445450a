package ledger

import "github.com/parietal-io/djaodjin-saas/internal/models"

// Totals is a signed amount in minor currency units paired with its
// unit. An aggregation over an empty set yields amount 0 and the
// configured default unit.
type Totals struct {
	Amount int64  `json:"amount"`
	Unit   string `json:"unit"`
}

// SumDest adds up dest_amount over rows. When selector is non-empty the
// sum is restricted to rows whose dest_account contains selector
// (case-insensitive); the orig side of each row is not consulted.
// Rows with differing dest_unit make the sum undefined and return
// ErrMismatchedUnits.
func SumDest(rows []models.Transaction, selector, defaultUnit string) (Totals, error) {
	totals := Totals{Unit: defaultUnit}
	seen := false
	for i := range rows {
		t := &rows[i]
		if selector != "" && !containsFold(t.DestAccount, selector) {
			continue
		}
		if seen && t.DestUnit != totals.Unit {
			return Totals{}, ErrMismatchedUnits
		}
		totals.Amount += t.DestAmount
		totals.Unit = t.DestUnit
		seen = true
	}
	return totals, nil
}

// SumOrig is the origin-side counterpart of SumDest: it adds up
// orig_amount, restricting to rows whose orig_account contains
// selector when one is given.
func SumOrig(rows []models.Transaction, selector, defaultUnit string) (Totals, error) {
	totals := Totals{Unit: defaultUnit}
	seen := false
	for i := range rows {
		t := &rows[i]
		if selector != "" && !containsFold(t.OrigAccount, selector) {
			continue
		}
		if seen && t.OrigUnit != totals.Unit {
			return Totals{}, ErrMismatchedUnits
		}
		totals.Amount += t.OrigAmount
		totals.Unit = t.OrigUnit
		seen = true
	}
	return totals, nil
}

// Balance subtracts the origin totals from the destination totals with
// exact integer arithmetic. The result takes its unit from the
// destination side; when the destination side is empty the origin unit
// is used instead. Two non-zero operands in different units return
// ErrMismatchedUnits, never an implicit conversion.
func Balance(dest, orig Totals) (Totals, error) {
	unit := dest.Unit
	switch {
	case dest.Amount == 0 && orig.Amount != 0:
		unit = orig.Unit
	case dest.Amount != 0 && orig.Amount != 0 && dest.Unit != orig.Unit:
		return Totals{}, ErrMismatchedUnits
	}
	return Totals{Amount: dest.Amount - orig.Amount, Unit: unit}, nil
}
