package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parietal-io/djaodjin-saas/internal/ledger"
	"github.com/parietal-io/djaodjin-saas/internal/middleware"
	"github.com/parietal-io/djaodjin-saas/internal/pagination"
	"github.com/parietal-io/djaodjin-saas/internal/processor"
	"github.com/parietal-io/djaodjin-saas/internal/service"
)

// TransactionLister defines the read-side listing operations used by
// BillingHandler.
type TransactionLister interface {
	ListTransactions(ctx context.Context, q service.ListQuery) (*pagination.Envelope, error)
	ListBillings(ctx context.Context, organization string, q service.ListQuery) (*pagination.Envelope, error)
	ListReceivables(ctx context.Context, organization string, q service.ListQuery) (*pagination.Envelope, error)
	ListTransfers(ctx context.Context, organization string, force bool, q service.ListQuery) (*pagination.Envelope, error)
}

// BalanceManager defines the statement-balance operations used by
// BillingHandler.
type BalanceManager interface {
	StatementBalance(ctx context.Context, organization string) (ledger.Totals, error)
	CancelBalance(ctx context.Context, organization, user string) error
}

type BillingHandler struct {
	lister          TransactionLister
	balances        BalanceManager
	defaultPageSize int
	maxPageSize     int
}

func NewBillingHandler(lister TransactionLister, balances BalanceManager, defaultPageSize, maxPageSize int) *BillingHandler {
	return &BillingHandler{
		lister:          lister,
		balances:        balances,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// RegisterRoutes mounts the billing API on a router group.
func (h *BillingHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/transactions", h.ListTransactions)
	org := g.Group("/billing/:organization")
	{
		org.GET("/billings", h.ListBillings)
		org.GET("/receivables", h.ListReceivables)
		org.GET("/transfers", h.ListTransfers)
		org.GET("/balance/", h.GetStatementBalance)
		org.DELETE("/balance/", h.CancelBalance)
	}
}

type listParams struct {
	StartAt  string `form:"start_at"`
	EndsAt   string `form:"ends_at"`
	Q        string `form:"q"`
	Selector string `form:"selector"`
	O        string `form:"o"`
	OT       string `form:"ot" validate:"omitempty,oneof=asc desc"`
	Force    string `form:"force"`
}

// parseListQuery binds and validates the shared listing parameters.
// On failure it writes the 400 response and returns ok=false.
func (h *BillingHandler) parseListQuery(c *gin.Context) (service.ListQuery, bool) {
	var params listParams
	if err := c.ShouldBindQuery(&params); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return service.ListQuery{}, false
	}
	if validationErrors := middleware.ValidateRequest(params); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return service.ListQuery{}, false
	}

	q := service.ListQuery{
		Q:        params.Q,
		Selector: params.Selector,
		Sort:     params.O,
		SortDir:  params.OT,
		EndsAt:   time.Now().UTC(),
		URL:      c.Request.URL,
	}
	if params.StartAt != "" {
		startAt, err := time.Parse(time.RFC3339, params.StartAt)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadRequest,
				fmt.Sprintf("Invalid start_at %q, expected an ISO-8601 timestamp", params.StartAt))
			return service.ListQuery{}, false
		}
		q.StartAt = &startAt
	}
	if params.EndsAt != "" {
		endsAt, err := time.Parse(time.RFC3339, params.EndsAt)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadRequest,
				fmt.Sprintf("Invalid ends_at %q, expected an ISO-8601 timestamp", params.EndsAt))
			return service.ListQuery{}, false
		}
		q.EndsAt = endsAt
	}

	page, err := pagination.ParseParams(c.Request.URL.Query(), h.defaultPageSize, h.maxPageSize)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
		return service.ListQuery{}, false
	}
	q.Page = page
	return q, true
}

// respondError translates the error taxonomy into HTTP statuses. A
// processor backend failure becomes a client-facing validation error
// carrying the backend message, never an opaque 5xx.
func respondError(c *gin.Context, err error, fallback string) {
	var procErr *processor.Error
	switch {
	case errors.Is(err, ledger.ErrOrganizationNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Organization not found")
	case errors.As(err, &procErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": fmt.Sprintf("The latest transfers might not be shown because"+
				" there was an error with the backend processor (ie. %s).", procErr.Message),
		})
	case errors.Is(err, ledger.ErrMismatchedUnits):
		middleware.RespondWithError(c, http.StatusBadRequest,
			"Transactions in different units cannot be aggregated")
	case errors.Is(err, ledger.ErrUnknownSortField),
		errors.Is(err, ledger.ErrBadSortDirection):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}

// ListTransactions queries all transactions recorded in the ledger,
// with a balance envelope over the filtered set.
func (h *BillingHandler) ListTransactions(c *gin.Context) {
	q, ok := h.parseListQuery(c)
	if !ok {
		return
	}
	envelope, err := h.lister.ListTransactions(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// ListBillings queries the transactions where the organization acts as
// a subscriber, with its statement balance in the envelope.
func (h *BillingHandler) ListBillings(c *gin.Context) {
	q, ok := h.parseListQuery(c)
	if !ok {
		return
	}
	envelope, err := h.lister.ListBillings(c.Request.Context(), c.Param("organization"), q)
	if err != nil {
		respondError(c, err, "Failed to list billings")
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// ListReceivables queries the receivables of a provider, with their
// total in the envelope.
func (h *BillingHandler) ListReceivables(c *gin.Context) {
	q, ok := h.parseListQuery(c)
	if !ok {
		return
	}
	envelope, err := h.lister.ListReceivables(c.Request.Context(), c.Param("organization"), q)
	if err != nil {
		respondError(c, err, "Failed to list receivables")
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// ListTransfers queries the transfers to a provider. By default only
// settled transfers are shown; force=true includes pending ones.
func (h *BillingHandler) ListTransfers(c *gin.Context) {
	q, ok := h.parseListQuery(c)
	if !ok {
		return
	}
	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadRequest,
				fmt.Sprintf("Invalid force value %q", raw))
			return
		}
		force = parsed
	}
	envelope, err := h.lister.ListTransfers(c.Request.Context(), c.Param("organization"), force, q)
	if err != nil {
		respondError(c, err, "Failed to list transfers")
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// GetStatementBalance returns the statement balance due for an
// organization.
func (h *BillingHandler) GetStatementBalance(c *gin.Context) {
	balance, err := h.balances.StatementBalance(c.Request.Context(), c.Param("organization"))
	if err != nil {
		respondError(c, err, "Failed to get balance")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance_amount": balance.Amount,
		"balance_unit":   balance.Unit,
	})
}

// CancelBalance nets out the organization's outstanding balance by
// recording an offsetting transaction attributed to the caller. It
// responds 204 with no representation of the created transaction.
func (h *BillingHandler) CancelBalance(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	if err := h.balances.CancelBalance(c.Request.Context(), c.Param("organization"), userID); err != nil {
		respondError(c, err, "Failed to cancel balance")
		return
	}
	c.Status(http.StatusNoContent)
}
