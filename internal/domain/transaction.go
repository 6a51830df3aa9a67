package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsTerminal reports whether the status can no longer change.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// TransactionType describes why money moved.
type TransactionType string

const (
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeReversal TransactionType = "REVERSAL"
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
)

// Transaction is a paired debit/credit between two accounts.
type Transaction struct {
	CreatedAt             time.Time
	CompletedAt           *time.Time
	ReversesTransactionID *string
	ID                    string
	ReferenceNumber       string
	FromAccountID         string
	ToAccountID           string
	Type                  TransactionType
	Status                TransactionStatus
	FailureKind           Kind
	FailureReason         string
	Amount                decimal.Decimal
}

// Validate validates transfer request.
func (t *Transaction) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return NewError(InvalidRequest, ErrSameAccount)
	}

	return ValidateAmount(t.Amount)
}

// Complete moves a pending transaction to COMPLETED.
func (t *Transaction) Complete(at time.Time) error {
	if t.Status != TransactionStatusPending {
		return Errorf(Conflict, "%w: %s is %s", ErrTransactionTerminal, t.ID, t.Status)
	}

	t.Status = TransactionStatusCompleted
	t.CompletedAt = &at

	return nil
}

// Fail moves a pending transaction to FAILED, keeping the cause for audit.
func (t *Transaction) Fail(cause error, at time.Time) error {
	if t.Status != TransactionStatusPending {
		return Errorf(Conflict, "%w: %s is %s", ErrTransactionTerminal, t.ID, t.Status)
	}

	t.Status = TransactionStatusFailed
	t.FailureKind = KindOf(cause)
	t.FailureReason = cause.Error()
	t.CompletedAt = &at

	return nil
}

// Matches reports whether a replayed request carries the same payload.
func (t *Transaction) Matches(fromAccountID, toAccountID string, amount decimal.Decimal) bool {
	return t.FromAccountID == fromAccountID &&
		t.ToAccountID == toAccountID &&
		t.Amount.Equal(amount)
}

// ReplayError rebuilds the error a FAILED transaction originally returned.
func (t *Transaction) ReplayError() error {
	if t.Status != TransactionStatusFailed {
		return nil
	}

	kind := t.FailureKind
	if kind == "" {
		kind = StorageFailure
	}

	return Errorf(kind, "transaction %s failed: %s", t.ID, t.FailureReason)
}

// Touches reports whether the transaction debits or credits accountID.
func (t *Transaction) Touches(accountID string) bool {
	return t.FromAccountID == accountID || t.ToAccountID == accountID
}
