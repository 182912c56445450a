// Package processor is the boundary to the external payment processor.
// Only its error signal is consumed here: a reconcile failure surfaces
// as a client-facing validation error on the transfer listing instead
// of an opaque server error.
package processor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Error is a failure reported by the processor backend.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Backend refreshes transfer settlement state from the processor.
type Backend interface {
	// Reconcile pulls the latest transfer settlements for an
	// organization. A backend failure is returned as *Error.
	Reconcile(ctx context.Context, organization string) error
}

// Client is an HTTP Backend against the processor gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Reconcile(ctx context.Context, organization string) error {
	url := fmt.Sprintf("%s/organizations/%s/transfers/reconcile", c.baseURL, organization)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build reconcile request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = resp.Status
		}
		return &Error{Message: message}
	}
	return nil
}

// Noop is a Backend for deployments without a processor gateway
// configured. Transfers are then served as already settled.
type Noop struct{}

func (Noop) Reconcile(ctx context.Context, organization string) error {
	return nil
}
