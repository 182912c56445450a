package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parietal-io/djaodjin-saas/internal/models"
)

func fixtureRows() []models.Transaction {
	return []models.Transaction{
		{
			Descr:       "Charge for 4 periods",
			OrigAccount: "Liability", OrigOrganization: "xia",
			OrigAmount: 112120, OrigUnit: "usd",
			DestAccount: "Funds", DestOrganization: "stripe",
			DestAmount: 112120, DestUnit: "usd",
		},
		{
			Descr:       "Distribution for cowork",
			OrigAccount: "Funds", OrigOrganization: "stripe",
			OrigAmount: 20000, OrigUnit: "usd",
			DestAccount: "Funds", DestOrganization: "cowork",
			DestAmount: 20000, DestUnit: "usd",
		},
	}
}

func TestSumDestMatchesManualArithmetic(t *testing.T) {
	totals, err := SumDest(fixtureRows(), "", "usd")
	require.NoError(t, err)
	assert.Equal(t, int64(132120), totals.Amount)
	assert.Equal(t, "usd", totals.Unit)
}

func TestSumOrigMatchesManualArithmetic(t *testing.T) {
	totals, err := SumOrig(fixtureRows(), "", "usd")
	require.NoError(t, err)
	assert.Equal(t, int64(132120), totals.Amount)
	assert.Equal(t, "usd", totals.Unit)
}

func TestBalanceMatchesManualArithmetic(t *testing.T) {
	rows := []models.Transaction{
		{OrigAccount: "Liability", OrigAmount: 500, OrigUnit: "usd",
			DestAccount: "Funds", DestAmount: 500, DestUnit: "usd"},
		{OrigAccount: "Funds", OrigAmount: 200, OrigUnit: "usd",
			DestAccount: "Liability", DestAmount: 200, DestUnit: "usd"},
	}
	dest, err := SumDest(rows, "Funds", "usd")
	require.NoError(t, err)
	orig, err := SumOrig(rows, "Funds", "usd")
	require.NoError(t, err)

	balance, err := Balance(dest, orig)
	require.NoError(t, err)
	// dest Funds: 500; orig Funds: 200.
	assert.Equal(t, int64(300), balance.Amount)
	assert.Equal(t, "usd", balance.Unit)
}

// The two sides of a balance are filtered independently: the origin sum
// only consults orig_account and the destination sum only dest_account.
func TestSumSelectorSidesAreIndependent(t *testing.T) {
	rows := []models.Transaction{
		// A -> B
		{OrigAccount: "Alpha", OrigAmount: 100, OrigUnit: "usd",
			DestAccount: "Beta", DestAmount: 100, DestUnit: "usd"},
		// B -> A
		{OrigAccount: "Beta", OrigAmount: 40, OrigUnit: "usd",
			DestAccount: "Alpha", DestAmount: 40, DestUnit: "usd"},
	}

	orig, err := SumOrig(rows, "Alpha", "usd")
	require.NoError(t, err)
	assert.Equal(t, int64(100), orig.Amount)

	dest, err := SumDest(rows, "Alpha", "usd")
	require.NoError(t, err)
	assert.Equal(t, int64(40), dest.Amount)
}

func TestSumSelectorIsCaseInsensitiveSubstring(t *testing.T) {
	rows := []models.Transaction{
		{OrigAccount: "Funds:withdraw", OrigAmount: 10, OrigUnit: "usd",
			DestAccount: "Liability", DestAmount: 10, DestUnit: "usd"},
	}
	totals, err := SumOrig(rows, "fund", "usd")
	require.NoError(t, err)
	assert.Equal(t, int64(10), totals.Amount)
}

func TestSumEmptySetYieldsZeroWithDefaultUnit(t *testing.T) {
	totals, err := SumDest(nil, "", "usd")
	require.NoError(t, err)
	assert.Equal(t, Totals{Amount: 0, Unit: "usd"}, totals)

	totals, err = SumOrig([]models.Transaction{}, "", "eur")
	require.NoError(t, err)
	assert.Equal(t, Totals{Amount: 0, Unit: "eur"}, totals)
}

func TestSumMixedUnitsIsAnError(t *testing.T) {
	rows := []models.Transaction{
		{DestAccount: "Funds", DestAmount: 100, DestUnit: "usd"},
		{DestAccount: "Funds", DestAmount: 100, DestUnit: "eur"},
	}
	_, err := SumDest(rows, "", "usd")
	assert.ErrorIs(t, err, ErrMismatchedUnits)
}

func TestBalanceMismatchedUnitsIsAnError(t *testing.T) {
	_, err := Balance(Totals{Amount: 100, Unit: "usd"}, Totals{Amount: 50, Unit: "eur"})
	assert.ErrorIs(t, err, ErrMismatchedUnits)
}

func TestBalanceUnitComesFromDestinationSide(t *testing.T) {
	balance, err := Balance(Totals{Amount: 100, Unit: "usd"}, Totals{Amount: 0, Unit: "eur"})
	require.NoError(t, err)
	assert.Equal(t, Totals{Amount: 100, Unit: "usd"}, balance)

	// An empty destination side falls back to the origin unit.
	balance, err = Balance(Totals{Amount: 0, Unit: "usd"}, Totals{Amount: 30, Unit: "eur"})
	require.NoError(t, err)
	assert.Equal(t, Totals{Amount: -30, Unit: "eur"}, balance)
}
