package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/parietal-io/djaodjin-saas/internal/events"
	"github.com/parietal-io/djaodjin-saas/internal/ledger"
	"github.com/parietal-io/djaodjin-saas/internal/models"
	"github.com/parietal-io/djaodjin-saas/internal/pagination"
	"github.com/parietal-io/djaodjin-saas/internal/processor"
	"github.com/parietal-io/djaodjin-saas/internal/utils"
)

// Ledger accounts written by balance cancellation.
const (
	payableAccount  = "Payable"
	canceledAccount = "Canceled"
	fundsAccount    = "Funds"
)

// receivablesWindow is the default lookback when a receivables listing
// gives no start_at.
const receivablesWindow = 24 * time.Hour

// OrganizationResolver looks up the organization named in a request
// path. Organization management is another service's concern.
type OrganizationResolver interface {
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
}

// Locker serializes critical sections across service instances.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// EventPublisher emits ledger events to the billing stream.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// ListQuery carries the common listing parameters after parsing.
type ListQuery struct {
	StartAt  *time.Time
	EndsAt   time.Time
	Q        string
	Selector string
	Sort     string
	SortDir  string
	Page     pagination.Params
	URL      *url.URL
}

// BillingService answers what an organization owes or receives over the
// double-entry ledger, and nets outstanding balances out.
type BillingService struct {
	store     ledger.Store
	orgs      OrganizationResolver
	processor processor.Backend
	locks     Locker
	publisher EventPublisher
	broker    string
}

func NewBillingService(
	store ledger.Store,
	orgs OrganizationResolver,
	backend processor.Backend,
	locks Locker,
	publisher EventPublisher,
	broker string,
) *BillingService {
	return &BillingService{
		store:     store,
		orgs:      orgs,
		processor: backend,
		locks:     locks,
		publisher: publisher,
		broker:    broker,
	}
}

// aggregator computes the listing-wide aggregate over the full filtered
// set, before any page is read.
type aggregator func(ctx context.Context, f ledger.Filter) (*pagination.Aggregate, error)

// assemble runs the common list pipeline: resolve the sort order,
// compute the aggregate over the whole filtered set, then read the
// count and the requested page. The aggregate and the page are two
// reads of the same filter; they are not one snapshot. A row committed
// between them can make the displayed aggregate and page disagree by
// that row, which is accepted for an append-only ledger.
func (s *BillingService) assemble(ctx context.Context, f ledger.Filter, q ListQuery, relOrg string, agg aggregator) (*pagination.Envelope, error) {
	order, err := ledger.ParseOrder(q.Sort, q.SortDir)
	if err != nil {
		return nil, err
	}

	var aggregate *pagination.Aggregate
	if agg != nil {
		if aggregate, err = agg(ctx, f); err != nil {
			return nil, err
		}
	}

	count, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Select(ctx, f, order, q.Page.PageSize, q.Page.Offset())
	if err != nil {
		return nil, err
	}

	views := make([]models.TransactionView, 0, len(rows))
	for i := range rows {
		views = append(views, models.NewTransactionView(&rows[i], relOrg))
	}

	env := pagination.New(q.Page, count, views, q.URL)
	env.EndsAt = q.EndsAt
	env.Aggregate = aggregate
	return &env, nil
}

func (s *BillingService) scopedFilter(q ListQuery) ledger.Filter {
	endsAt := q.EndsAt
	return ledger.Filter{
		StartAt:  q.StartAt,
		EndsAt:   &endsAt,
		Q:        q.Q,
		Selector: q.Selector,
	}
}

// ListTransactions returns the global ledger listing with a balance
// envelope: dest_totals - orig_totals over the full filtered set, each
// side's sum restricted to its own side's selector match.
func (s *BillingService) ListTransactions(ctx context.Context, q ListQuery) (*pagination.Envelope, error) {
	f := s.scopedFilter(q)
	return s.assemble(ctx, f, q, "", s.balanceAggregate)
}

func (s *BillingService) balanceAggregate(ctx context.Context, f ledger.Filter) (*pagination.Aggregate, error) {
	dest, err := s.store.SumDestAmount(ctx, f)
	if err != nil {
		return nil, err
	}
	orig, err := s.store.SumOrigAmount(ctx, f)
	if err != nil {
		return nil, err
	}
	balance, err := ledger.Balance(dest, orig)
	if err != nil {
		return nil, err
	}
	return &pagination.Aggregate{
		Field:  pagination.AggregateBalance,
		Amount: balance.Amount,
		Unit:   balance.Unit,
	}, nil
}

// ListBillings returns the transactions where the organization acts as
// the subscriber, with the statement balance as the envelope aggregate.
// The statement balance is the store's own rule, consumed once per
// request with the same ends_at as the date filter.
func (s *BillingService) ListBillings(ctx context.Context, organization string, q ListQuery) (*pagination.Envelope, error) {
	org, err := s.orgs.GetBySlug(ctx, organization)
	if err != nil {
		return nil, err
	}
	f := s.scopedFilter(q)
	f.SubscriberOrg = org.Slug
	return s.assemble(ctx, f, q, org.Slug, func(ctx context.Context, _ ledger.Filter) (*pagination.Aggregate, error) {
		balance, err := s.store.StatementBalance(ctx, org.Slug)
		if err != nil {
			return nil, err
		}
		return &pagination.Aggregate{
			Field:  pagination.AggregateBalance,
			Amount: balance.Amount,
			Unit:   balance.Unit,
		}, nil
	})
}

// ListReceivables returns the positive-origin-amount transactions owed
// to a provider, with total = sum of orig_amount over the full filtered
// set. Without a start_at the listing covers the day before ends_at.
func (s *BillingService) ListReceivables(ctx context.Context, organization string, q ListQuery) (*pagination.Envelope, error) {
	org, err := s.orgs.GetBySlug(ctx, organization)
	if err != nil {
		return nil, err
	}
	if q.StartAt == nil {
		startAt := q.EndsAt.Add(-receivablesWindow)
		q.StartAt = &startAt
	}
	f := s.scopedFilter(q)
	f.DestOrg = org.Slug
	f.PositiveOrigOnly = true
	return s.assemble(ctx, f, q, org.Slug, func(ctx context.Context, f ledger.Filter) (*pagination.Aggregate, error) {
		total, err := s.store.SumOrigAmount(ctx, f)
		if err != nil {
			return nil, err
		}
		return &pagination.Aggregate{
			Field:  pagination.AggregateTotal,
			Amount: total.Amount,
			Unit:   total.Unit,
		}, nil
	})
}

// ListTransfers returns the provider's transfer transactions in a plain
// page envelope. The default is reconcile = !force: only transfers the
// processor has settled. With force set, pending transfers are listed
// too and the processor refresh is skipped. A processor failure during
// the refresh propagates as *processor.Error for the handler to turn
// into a client-facing validation error.
func (s *BillingService) ListTransfers(ctx context.Context, organization string, force bool, q ListQuery) (*pagination.Envelope, error) {
	org, err := s.orgs.GetBySlug(ctx, organization)
	if err != nil {
		return nil, err
	}
	reconcile := !force
	if reconcile {
		if err := s.processor.Reconcile(ctx, org.Slug); err != nil {
			return nil, err
		}
	}
	f := s.scopedFilter(q)
	f.DestOrg = org.Slug
	f.DestAccount = fundsAccount
	f.SettledOnly = reconcile
	return s.assemble(ctx, f, q, org.Slug, nil)
}

// StatementBalance returns the organization's statement balance due.
func (s *BillingService) StatementBalance(ctx context.Context, organization string) (ledger.Totals, error) {
	org, err := s.orgs.GetBySlug(ctx, organization)
	if err != nil {
		return ledger.Totals{}, err
	}
	return s.store.StatementBalance(ctx, org.Slug)
}

// CancelBalance nets out the organization's outstanding statement
// balance by recording one offsetting transaction attributed to user.
// The read-then-write runs under a per-organization lock so two
// concurrent cancellations cannot both read the same pre-cancellation
// balance and double-offset it. A zero balance is a no-op.
func (s *BillingService) CancelBalance(ctx context.Context, organization, user string) error {
	org, err := s.orgs.GetBySlug(ctx, organization)
	if err != nil {
		return err
	}
	return s.locks.WithLock(ctx, "cancel-balance:"+org.Slug, func(ctx context.Context) error {
		balance, err := s.store.StatementBalance(ctx, org.Slug)
		if err != nil {
			return err
		}
		if balance.Amount == 0 {
			return nil
		}

		cancellation := &models.Transaction{
			ID:               utils.GenerateID("txn"),
			CreatedAt:        time.Now().UTC(),
			Descr:            fmt.Sprintf("Cancel balance for %s (by %s)", org.Slug, user),
			OrigOrganization: org.Slug,
			OrigAccount:      payableAccount,
			OrigAmount:       balance.Amount,
			OrigUnit:         balance.Unit,
			DestOrganization: s.broker,
			DestAccount:      canceledAccount,
			DestAmount:       balance.Amount,
			DestUnit:         balance.Unit,
			CreatedBy:        user,
		}
		if err := s.store.Create(ctx, cancellation); err != nil {
			return fmt.Errorf("failed to record balance cancellation: %w", err)
		}

		s.publish(ctx, events.TransactionRecorded, events.TransactionRecordedEvent{
			TransactionID:    cancellation.ID,
			OrigOrganization: cancellation.OrigOrganization,
			DestOrganization: cancellation.DestOrganization,
			Amount:           cancellation.DestAmount,
			Unit:             cancellation.DestUnit,
		})
		s.publish(ctx, events.BalanceCancelled, events.BalanceCancelledEvent{
			Organization: org.Slug,
			Amount:       balance.Amount,
			Unit:         balance.Unit,
			CancelledBy:  user,
		})
		return nil
	})
}

func (s *BillingService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.BillingEventsStream, eventType, data); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
