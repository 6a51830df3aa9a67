package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one immutable signed posting against one account.
// Sequence is assigned by the store and orders entries within the ledger.
type Entry struct {
	CreatedAt              time.Time
	ID                     string
	AccountID              string
	TransactionID          string
	Amount                 decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
	AccountVersion         int64
	Sequence               int64
}

// IsDebit reports whether the entry takes money out of its account.
func (e *Entry) IsDebit() bool {
	return e.Amount.IsNegative()
}

// ValidateEntryPair checks the conservation law for one transaction:
// exactly two entries, on two distinct accounts, same transaction, summing to zero.
func ValidateEntryPair(entries []*Entry) error {
	if len(entries) != 2 {
		return NewError(InvalidRequest, ErrMalformedEntryPair)
	}

	a, b := entries[0], entries[1]
	if a.AccountID == b.AccountID || a.TransactionID != b.TransactionID || a.TransactionID == "" {
		return NewError(InvalidRequest, ErrMalformedEntryPair)
	}

	if !a.Amount.Add(b.Amount).IsZero() || a.Amount.IsZero() {
		return NewError(InvalidRequest, ErrUnbalancedEntries)
	}

	return nil
}

// SumEntries returns the signed sum of the entries' amounts.
func SumEntries(entries []*Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}
