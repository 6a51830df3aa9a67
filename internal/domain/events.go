package domain

import "time"

// Event types
const (
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeTransactionFailed    = "transaction.failed"
	EventTypeAccountOpened        = "account.opened"
	EventTypeAccountStatusChanged = "account.status_changed"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewTransactionEvent builds the outbox event for a terminal transaction.
func NewTransactionEvent(id string, t *Transaction, at time.Time) *OutboxEvent {
	eventType := EventTypeTransactionCompleted
	payload := map[string]any{
		"transaction_id":   t.ID,
		"reference_number": t.ReferenceNumber,
		"type":             string(t.Type),
		"from_account_id":  t.FromAccountID,
		"to_account_id":    t.ToAccountID,
		"amount":           FormatAmount(t.Amount),
		"status":           string(t.Status),
	}

	if t.Status == TransactionStatusFailed {
		eventType = EventTypeTransactionFailed
		payload["failure_kind"] = string(t.FailureKind)
		payload["failure_reason"] = t.FailureReason
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   t.ID,
		AggregateType: AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}

// NewAccountEvent builds an outbox event for an account lifecycle change.
func NewAccountEvent(id, eventType string, a *Account, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   a.ID,
		AggregateType: AggregateTypeAccount,
		EventType:     eventType,
		Payload: map[string]any{
			"account_id":   a.ID,
			"customer_id":  a.CustomerID,
			"account_type": a.AccountType,
			"status":       string(a.Status),
		},
		CreatedAt: at,
	}
}
