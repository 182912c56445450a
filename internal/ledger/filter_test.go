package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/parietal-io/djaodjin-saas/internal/models"
)

func ts(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestFilterDateRangeIsInclusiveStartExclusiveEnd(t *testing.T) {
	startAt := ts("2017-01-01T00:00:00Z")
	endsAt := ts("2017-02-01T00:00:00Z")
	f := Filter{StartAt: &startAt, EndsAt: &endsAt}

	atStart := models.Transaction{CreatedAt: startAt}
	atEnd := models.Transaction{CreatedAt: endsAt}
	before := models.Transaction{CreatedAt: startAt.Add(-time.Second)}
	inside := models.Transaction{CreatedAt: startAt.Add(time.Hour)}

	assert.True(t, f.Matches(&atStart), "a transaction at exactly start_at is included")
	assert.False(t, f.Matches(&atEnd), "a transaction at exactly ends_at is excluded")
	assert.False(t, f.Matches(&before))
	assert.True(t, f.Matches(&inside))
}

func TestFilterUnboundedSides(t *testing.T) {
	endsAt := ts("2017-02-01T00:00:00Z")
	f := Filter{EndsAt: &endsAt}
	old := models.Transaction{CreatedAt: ts("1999-01-01T00:00:00Z")}
	assert.True(t, f.Matches(&old))
}

func TestFilterFreeTextSearch(t *testing.T) {
	tx := models.Transaction{
		Descr:        "Charge for 4 periods",
		OrigFullName: "Xia Lee",
		DestFullName: "Stripe Processing",
	}

	assert.True(t, Filter{Q: "charge"}.Matches(&tx), "descr, case-insensitive")
	assert.True(t, Filter{Q: "xia"}.Matches(&tx), "origin full name")
	assert.True(t, Filter{Q: "processing"}.Matches(&tx), "destination full name")
	assert.False(t, Filter{Q: "refund"}.Matches(&tx))
}

func TestFilterSelectorMatchesEitherSide(t *testing.T) {
	tx := models.Transaction{OrigAccount: "Liability", DestAccount: "Funds"}

	assert.True(t, Filter{Selector: "funds"}.Matches(&tx))
	assert.True(t, Filter{Selector: "liab"}.Matches(&tx))
	assert.False(t, Filter{Selector: "receivable"}.Matches(&tx))
}

func TestFilterOrganizationScoping(t *testing.T) {
	tx := models.Transaction{OrigOrganization: "xia", DestOrganization: "cowork"}

	assert.True(t, Filter{SubscriberOrg: "xia"}.Matches(&tx))
	assert.True(t, Filter{SubscriberOrg: "cowork"}.Matches(&tx))
	assert.False(t, Filter{SubscriberOrg: "other"}.Matches(&tx))

	assert.True(t, Filter{DestOrg: "cowork"}.Matches(&tx))
	assert.False(t, Filter{DestOrg: "xia"}.Matches(&tx))
}

func TestFilterPositiveOrigOnly(t *testing.T) {
	positive := models.Transaction{OrigAmount: 1}
	zero := models.Transaction{OrigAmount: 0}
	negative := models.Transaction{OrigAmount: -5}

	f := Filter{PositiveOrigOnly: true}
	assert.True(t, f.Matches(&positive))
	assert.False(t, f.Matches(&zero))
	assert.False(t, f.Matches(&negative))
}

func TestFilterSettledOnly(t *testing.T) {
	settledAt := ts("2017-01-15T00:00:00Z")
	settled := models.Transaction{SettledAt: &settledAt}
	pending := models.Transaction{}

	f := Filter{SettledOnly: true}
	assert.True(t, f.Matches(&settled))
	assert.False(t, f.Matches(&pending))
	assert.True(t, Filter{}.Matches(&pending))
}
