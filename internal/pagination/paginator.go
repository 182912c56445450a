package pagination

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/parietal-io/djaodjin-saas/internal/models"
)

// Aggregate field names. They select which envelope shape is rendered.
const (
	AggregateBalance = "balance"
	AggregateTotal   = "total"
)

// Aggregate is a server-side computation over the full filtered set,
// attached to every page of the same query unchanged.
type Aggregate struct {
	Field  string
	Amount int64
	Unit   string
}

// Params selects one page of a listing.
type Params struct {
	Page     int
	PageSize int
}

// ParseParams reads page/page_size from query parameters, applying
// defaultSize and capping at maxSize. Non-numeric values are an error;
// out-of-range values are coerced.
func ParseParams(query url.Values, defaultSize, maxSize int) (Params, error) {
	p := Params{Page: 1, PageSize: defaultSize}
	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("invalid page value %q", raw)
		}
		if page > 0 {
			p.Page = page
		}
	}
	if raw := query.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("invalid page_size value %q", raw)
		}
		if size > 0 {
			p.PageSize = size
		}
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p, nil
}

// Offset returns the row offset of the selected page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Envelope is one page of results plus the listing-wide aggregate.
// Count always covers the full filtered set, not the page. Next and
// Previous are links to adjacent pages, nil at the boundaries.
type Envelope struct {
	EndsAt    time.Time
	Aggregate *Aggregate
	Count     int
	Next      *string
	Previous  *string
	Results   []models.TransactionView
}

// New assembles an envelope for one page. requestURL is the URL the
// page was requested with; adjacent-page links are built from it by
// rewriting the page parameter.
func New(params Params, count int, results []models.TransactionView, requestURL *url.URL) Envelope {
	if results == nil {
		results = []models.TransactionView{}
	}
	env := Envelope{Count: count, Results: results}
	if requestURL != nil {
		if params.Offset()+params.PageSize < count {
			env.Next = pageLink(requestURL, params.Page+1)
		}
		if params.Page > 1 {
			env.Previous = pageLink(requestURL, params.Page-1)
		}
	}
	return env
}

func pageLink(requestURL *url.URL, page int) *string {
	u := *requestURL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}

type page struct {
	Count    int                      `json:"count"`
	Next     *string                  `json:"next"`
	Previous *string                  `json:"previous"`
	Results  []models.TransactionView `json:"results"`
}

// MarshalJSON renders the envelope in one of its three documented
// shapes: a balance envelope, a total envelope, or a plain page when no
// aggregate was computed.
func (e Envelope) MarshalJSON() ([]byte, error) {
	p := page{Count: e.Count, Next: e.Next, Previous: e.Previous, Results: e.Results}
	if e.Aggregate == nil {
		return json.Marshal(p)
	}
	switch e.Aggregate.Field {
	case AggregateBalance:
		return json.Marshal(struct {
			EndsAt  time.Time `json:"ends_at"`
			Balance int64     `json:"balance"`
			Unit    string    `json:"unit"`
			page
		}{e.EndsAt, e.Aggregate.Amount, e.Aggregate.Unit, p})
	case AggregateTotal:
		return json.Marshal(struct {
			EndsAt time.Time `json:"ends_at"`
			Total  int64     `json:"total"`
			Unit   string    `json:"unit"`
			page
		}{e.EndsAt, e.Aggregate.Amount, e.Aggregate.Unit, p})
	default:
		return nil, fmt.Errorf("unknown aggregate field %q", e.Aggregate.Field)
	}
}
