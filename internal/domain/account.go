package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// IsValid reports whether s is a known status.
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusClosed:
		return true
	}
	return false
}

// Account types.
const (
	AccountTypeSavings  = "SAVINGS"
	AccountTypeChecking = "CHECKING"
	AccountTypeSystem   = "SYSTEM"
)

// FundingAccountID is the internal account that deposits are drawn from.
// Its balance mirrors the total money brought into the ledger, negated.
const (
	FundingAccountID = "00000000000000000000FUNDING"
	SystemCustomerID = "system"
)

// Account represents a customer or system account holding a balance.
type Account struct {
	ID                   string
	CustomerID           string
	AccountType          string
	Balance              decimal.Decimal
	Status               AccountStatus
	AllowNegativeBalance bool
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsSystem reports whether the account is internal to the ledger.
func (a *Account) IsSystem() bool {
	return a.AccountType == AccountTypeSystem
}

// CanTransact checks that the account may take part in a money movement.
func (a *Account) CanTransact() error {
	if a.Status != AccountStatusActive {
		return Errorf(AccountUnavailable, "%w: %s is %s", ErrAccountNotActive, a.ID, a.Status)
	}
	return nil
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.AllowNegativeBalance {
		return nil
	}
	if a.Balance.LessThan(amount) {
		return NewError(InsufficientFunds, ErrInsufficientBalance)
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// ValidateTransition checks whether the account may move to the target status.
// CLOSED is terminal and requires a zero balance.
func (a *Account) ValidateTransition(target AccountStatus) error {
	if !target.IsValid() {
		return Errorf(InvalidRequest, "%w: %q", ErrInvalidStatus, target)
	}

	if a.IsSystem() {
		return NewError(InvalidRequest, ErrSystemAccount)
	}

	if a.Status == AccountStatusClosed {
		return Errorf(Conflict, "%w: %s is closed", ErrInvalidTransition, a.ID)
	}

	if target == AccountStatusClosed && !a.Balance.IsZero() {
		return Errorf(Conflict, "%w: balance is %s", ErrNonZeroBalance, a.Balance.StringFixed(AmountScale))
	}

	return nil
}
