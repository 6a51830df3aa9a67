package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInconsistentLedger is returned when the ledger is not balanced.
var ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")

// maxReportedTransactions caps how many offending IDs an error message names.
const maxReportedTransactions = 5

// LedgerUseCase verifies double entry across the whole ledger.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{ledgerRepo: ledgerRepo}
}

// CheckConsistency reports whether the ledger is balanced. The global sums are
// checked first, then every transaction on its own, so offsetting mistakes in
// two transactions still show up.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	totalBalance, totalAmount, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return false, err
	}

	// Money enters only through the funding account, whose balance goes
	// negative by exactly what it paid out, so all balances sum to zero.
	if !totalBalance.IsZero() || !totalAmount.IsZero() {
		return false, ErrInconsistentLedger
	}

	unbalanced, err := uc.UnbalancedTransactions(ctx)
	if err != nil {
		return false, err
	}

	if len(unbalanced) > 0 {
		return false, fmt.Errorf("%w: %s", ErrInconsistentLedger, describeChecks(unbalanced))
	}

	return true, nil
}

// UnbalancedTransactions lists every transaction whose entries break double entry.
func (uc *LedgerUseCase) UnbalancedTransactions(ctx context.Context) ([]TransactionCheck, error) {
	return uc.ledgerRepo.UnbalancedTransactions(ctx)
}

func describeChecks(checks []TransactionCheck) string {
	parts := make([]string, 0, maxReportedTransactions+1)
	for i, c := range checks {
		if i == maxReportedTransactions {
			parts = append(parts, fmt.Sprintf("and %d more", len(checks)-i))
			break
		}
		parts = append(parts, fmt.Sprintf("%s %s has %d entries summing to %s",
			c.TransactionID, c.Status, c.EntryCount, c.EntrySum.StringFixed(2)))
	}

	return strings.Join(parts, "; ")
}
