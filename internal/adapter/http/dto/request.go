package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// Amounts decode from a JSON string ("12.50") or a number literal (12.50)
// straight into a decimal, never through float64.

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	CustomerID      string          `json:"customerId" validate:"required,max=64"`
	AccountType     string          `json:"accountType" validate:"required"`
	InitialBalance  decimal.Decimal `json:"initialBalance"`
	ReferenceNumber string          `json:"referenceNumber,omitempty" validate:"omitempty,max=64"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		CustomerID:      r.CustomerID,
		AccountType:     r.AccountType,
		InitialBalance:  r.InitialBalance,
		ReferenceNumber: r.ReferenceNumber,
	}
}

// UpdateAccountRequest changes an account's status. Nothing else about an
// account is mutable.
type UpdateAccountRequest struct {
	Status string `json:"status" validate:"required"`
}

// TargetStatus returns the requested status in canonical form.
func (r *UpdateAccountRequest) TargetStatus() domain.AccountStatus {
	return domain.AccountStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
}

// TransferRequest represents a request to move money between two accounts.
type TransferRequest struct {
	FromAccountID   string          `json:"fromAccountId" validate:"required"`
	ToAccountID     string          `json:"toAccountId" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"referenceNumber,omitempty" validate:"omitempty,max=64"`
}

// ToUseCaseInput converts to use case input. idempotencyKey is used when the
// body carries no reference number.
func (r *TransferRequest) ToUseCaseInput(idempotencyKey string) usecase.TransferInput {
	ref := r.ReferenceNumber
	if ref == "" {
		ref = idempotencyKey
	}

	return usecase.TransferInput{
		FromAccountID:   r.FromAccountID,
		ToAccountID:     r.ToAccountID,
		Amount:          r.Amount,
		ReferenceNumber: ref,
	}
}

// ReverseRequest represents a request to reverse a completed transaction.
type ReverseRequest struct {
	ReferenceNumber string `json:"referenceNumber,omitempty" validate:"omitempty,max=64"`
}

// ToUseCaseInput converts to use case input.
func (r *ReverseRequest) ToUseCaseInput(transactionID, idempotencyKey string) usecase.ReverseInput {
	ref := r.ReferenceNumber
	if ref == "" {
		ref = idempotencyKey
	}

	return usecase.ReverseInput{
		TransactionID:   transactionID,
		ReferenceNumber: ref,
	}
}
