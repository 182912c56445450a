package events

import "time"

// BillingEventsStream is the Redis stream carrying ledger events.
const BillingEventsStream = "billing-events"

// Event types published on BillingEventsStream.
const (
	TransactionRecorded = "transaction.recorded"
	BalanceCancelled    = "balance.cancelled"
)

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TransactionRecordedEvent is emitted after a transaction is written to
// the ledger by this service.
type TransactionRecordedEvent struct {
	TransactionID    string `json:"transactionId"`
	OrigOrganization string `json:"origOrganization"`
	DestOrganization string `json:"destOrganization"`
	Amount           int64  `json:"amount"`
	Unit             string `json:"unit"`
}

// BalanceCancelledEvent is emitted after an organization's outstanding
// statement balance has been netted out.
type BalanceCancelledEvent struct {
	Organization string `json:"organization"`
	Amount       int64  `json:"amount"`
	Unit         string `json:"unit"`
	CancelledBy  string `json:"cancelledBy"`
}
