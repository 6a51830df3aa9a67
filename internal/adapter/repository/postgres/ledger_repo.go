package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/postgres/generated"
	"github.com/iho/finledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency returns the sum of all balances and the sum of all entries.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalBalance decimal.Decimal, totalAmount decimal.Decimal, err error) {
	result, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, mapError(err)
	}

	return numericToDecimal(result.TotalAccountBalance), numericToDecimal(result.TotalEntryAmount), nil
}

// BalanceChecks returns stored and ledger-derived balances for every account.
func (r *LedgerRepository) BalanceChecks(ctx context.Context) ([]usecase.BalanceCheck, error) {
	rows, err := r.queries.ListBalanceChecks(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	checks := make([]usecase.BalanceCheck, 0, len(rows))
	for _, row := range rows {
		checks = append(checks, usecase.BalanceCheck{
			AccountID:       row.ID,
			RecordedBalance: numericToDecimal(row.Balance),
			LedgerBalance:   numericToDecimal(row.LedgerBalance),
		})
	}

	return checks, nil
}

// UnbalancedTransactions returns every transaction whose entries break double entry.
func (r *LedgerRepository) UnbalancedTransactions(ctx context.Context) ([]usecase.TransactionCheck, error) {
	rows, err := r.queries.ListUnbalancedTransactions(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	checks := make([]usecase.TransactionCheck, 0, len(rows))
	for _, row := range rows {
		checks = append(checks, usecase.TransactionCheck{
			TransactionID: row.ID,
			Status:        domain.TransactionStatus(row.Status),
			EntryCount:    int(row.EntryCount),
			EntrySum:      numericToDecimal(row.EntrySum),
		})
	}

	return checks, nil
}
