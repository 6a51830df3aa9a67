package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customerId"`
	AccountType string    `json:"accountType"`
	Balance     string    `json:"balance"`
	Status      string    `json:"status"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID,
		CustomerID:  a.CustomerID,
		AccountType: a.AccountType,
		Balance:     domain.FormatAmount(a.Balance),
		Status:      string(a.Status),
		Version:     a.Version,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	TransactionID         string     `json:"transactionId"`
	ReferenceNumber       string     `json:"referenceNumber"`
	Type                  string     `json:"type"`
	Status                string     `json:"status"`
	FromAccountID         string     `json:"fromAccountId"`
	ToAccountID           string     `json:"toAccountId"`
	Amount                string     `json:"amount"`
	ReversesTransactionID string     `json:"reversesTransactionId,omitempty"`
	FailureKind           string     `json:"failureKind,omitempty"`
	FailureReason         string     `json:"failureReason,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		TransactionID:   t.ID,
		ReferenceNumber: t.ReferenceNumber,
		Type:            string(t.Type),
		Status:          string(t.Status),
		FromAccountID:   t.FromAccountID,
		ToAccountID:     t.ToAccountID,
		Amount:          domain.FormatAmount(t.Amount),
		FailureKind:     string(t.FailureKind),
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		CompletedAt:     t.CompletedAt,
	}

	if t.ReversesTransactionID != nil {
		resp.ReversesTransactionID = *t.ReversesTransactionID
	}

	return resp
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID                     string    `json:"id"`
	Sequence               int64     `json:"sequence"`
	AccountID              string    `json:"accountId"`
	TransactionID          string    `json:"transactionId"`
	Amount                 string    `json:"amount"`
	AccountPreviousBalance string    `json:"accountPreviousBalance"`
	AccountCurrentBalance  string    `json:"accountCurrentBalance"`
	AccountVersion         int64     `json:"accountVersion"`
	CreatedAt              time.Time `json:"createdAt"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:                     e.ID,
		Sequence:               e.Sequence,
		AccountID:              e.AccountID,
		TransactionID:          e.TransactionID,
		Amount:                 domain.FormatAmount(e.Amount),
		AccountPreviousBalance: domain.FormatAmount(e.AccountPreviousBalance),
		AccountCurrentBalance:  domain.FormatAmount(e.AccountCurrentBalance),
		AccountVersion:         e.AccountVersion,
		CreatedAt:              e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// BalanceResponse is an account balance as of a point in time.
type BalanceResponse struct {
	AccountID string    `json:"accountId"`
	Balance   string    `json:"balance"`
	At        time.Time `json:"at"`
}

// NewBalanceResponse builds a BalanceResponse.
func NewBalanceResponse(accountID string, balance decimal.Decimal, at time.Time) *BalanceResponse {
	return &BalanceResponse{
		AccountID: accountID,
		Balance:   domain.FormatAmount(balance),
		At:        at,
	}
}

// ConsistencyResponse reports the ledger-wide consistency check.
type ConsistencyResponse struct {
	Consistent bool      `json:"consistent"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// ReconciliationResultResponse represents one account's reconciliation.
type ReconciliationResultResponse struct {
	AccountID         string    `json:"accountId"`
	RecordedBalance   string    `json:"recordedBalance"`
	CalculatedBalance string    `json:"calculatedBalance"`
	Difference        string    `json:"difference"`
	Reconciled        bool      `json:"reconciled"`
	Repaired          bool      `json:"repaired"`
	CheckedAt         time.Time `json:"checkedAt"`
}

// ReconciliationResultFromUseCase converts a reconciliation result to response.
func ReconciliationResultFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResultResponse {
	return &ReconciliationResultResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   domain.FormatAmount(r.RecordedBalance),
		CalculatedBalance: domain.FormatAmount(r.CalculatedBalance),
		Difference:        domain.FormatAmount(r.Difference),
		Reconciled:        r.IsReconciled,
		Repaired:          r.Repaired,
		CheckedAt:         r.LastChecked,
	}
}

// ReconciliationReportResponse represents a full reconciliation report.
type ReconciliationReportResponse struct {
	TotalAccounts      int                             `json:"totalAccounts"`
	ReconciledAccounts int                             `json:"reconciledAccounts"`
	LedgerConsistent   bool                            `json:"ledgerConsistent"`
	Discrepancies      []*ReconciliationResultResponse `json:"discrepancies"`
	CheckedAt          time.Time                       `json:"checkedAt"`
}

// ReconciliationReportFromUseCase converts a reconciliation report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResultResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationResultFromUseCase(d)
	}

	return &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		LedgerConsistent:   r.LedgerConsistent,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses. A failed transfer also
// carries the transaction it was recorded as.
type ErrorResponse struct {
	Error           string `json:"error"`
	Message         string `json:"message,omitempty"`
	Kind            string `json:"kind,omitempty"`
	Retryable       bool   `json:"retryable"`
	TransactionID   string `json:"transactionId,omitempty"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`
}
