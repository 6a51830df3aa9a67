package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide whether to retry.
type Kind string

// Error categories. A Kind is itself an error so errors.Is(err, domain.Timeout) works.
const (
	InvalidRequest     Kind = "INVALID_REQUEST"
	AccountUnavailable Kind = "ACCOUNT_UNAVAILABLE"
	InsufficientFunds  Kind = "INSUFFICIENT_FUNDS"
	Timeout            Kind = "TIMEOUT"
	Conflict           Kind = "CONFLICT"
	StorageFailure     Kind = "STORAGE_FAILURE"
	NotFound           Kind = "NOT_FOUND"

	// Internal marks an error no adapter categorized. It is never retryable.
	Internal Kind = "INTERNAL"
)

func (k Kind) Error() string { return string(k) }

// Retryable reports whether the same request may succeed if sent again.
func (k Kind) Retryable() bool {
	return k == Timeout || k == StorageFailure
}

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNotActive    = errors.New("account is not active")
	ErrSystemAccount       = errors.New("system accounts cannot be used directly")
	ErrInvalidStatus       = errors.New("invalid account status")
	ErrInvalidTransition   = errors.New("account status transition not allowed")
	ErrNonZeroBalance      = errors.New("account balance must be zero to close")
	ErrInsufficientBalance = errors.New("insufficient funds in source account")
	ErrConcurrentUpdate    = errors.New("account changed concurrently")

	// Transfer errors
	ErrSameAccount         = errors.New("self-transfer")
	ErrInvalidAmount       = errors.New("non-positive amount")
	ErrAmountPrecision     = errors.New("amount has more than two decimal places")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionTerminal = errors.New("transaction already reached a terminal state")
	ErrReferenceNotFound   = errors.New("reference not found")
	ErrReferenceTaken      = errors.New("reference already registered")
	ErrReferenceMismatch   = errors.New("reference already used for a different transfer")
	ErrInvalidReference    = errors.New("invalid reference number")
	ErrAlreadyReversed     = errors.New("transaction has already been reversed")
	ErrNotReversible       = errors.New("only completed transfers can be reversed")
	ErrUnbalancedEntries   = errors.New("ledger entries do not sum to zero")
	ErrMalformedEntryPair  = errors.New("a transaction posts exactly two entries on two accounts")
	ErrLockTimeout         = errors.New("timed out acquiring account locks")
	ErrCommitTimeout       = errors.New("deadline exceeded before commit")
)

// Error is a categorized failure wrapping a more specific cause.
type Error struct {
	Kind Kind
	Err  error
}

// NewError wraps err with a kind. A nil err falls back to the kind itself.
func NewError(kind Kind, err error) *Error {
	if err == nil {
		err = kind
	}

	return &Error{Kind: kind, Err: err}
}

// Errorf builds a categorized error from a format string; %w is honoured.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a bare Kind target, so errors.Is(err, domain.Conflict) is true for any conflict.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the category of err, or Internal for uncategorized errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}

	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return Internal
}

// IsRetryable reports whether err belongs to a retryable category.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}
