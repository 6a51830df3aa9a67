package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/metrics"
)

// ReconciliationUseCase compares stored balances with the ledger and repairs drift.
type ReconciliationUseCase struct {
	txManager   TxManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledger      *LedgerUseCase
	ledgerRepo  LedgerRepository
	locker      Locker
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
	locker Locker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledger:      NewLedgerUseCase(ledgerRepo),
		ledgerRepo:  ledgerRepo,
		locker:      locker,
		metrics:     m,
		logger:      logger,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	Repaired          bool
	LastChecked       time.Time
}

func newResult(accountID string, recorded, calculated decimal.Decimal) *ReconciliationResult {
	return &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   recorded,
		CalculatedBalance: calculated,
		Difference:        recorded.Sub(calculated),
		IsReconciled:      recorded.Equal(calculated),
		LastChecked:       time.Now().UTC(),
	}
}

// ReconcileAccount compares one account's stored balance with the sum of its entries.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sum, err := uc.entryRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return newResult(accountID, account.Balance, sum), nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	CheckedAt          time.Time
}

// GenerateReconciliationReport checks every account, system accounts included,
// plus the ledger-wide totals.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	checks, err := uc.ledgerRepo.BalanceChecks(ctx)
	if err != nil {
		return nil, err
	}

	consistent, err := uc.ledger.CheckConsistency(ctx)
	if err != nil && !errors.Is(err, ErrInconsistentLedger) {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts:    len(checks),
		Discrepancies:    make([]*ReconciliationResult, 0),
		LedgerConsistent: consistent,
		CheckedAt:        time.Now().UTC(),
	}

	for _, check := range checks {
		result := newResult(check.AccountID, check.RecordedBalance, check.LedgerBalance)
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationDiscrepancies.Set(float64(len(report.Discrepancies)))
	}

	if len(report.Discrepancies) > 0 || !report.LedgerConsistent {
		uc.logger.Error().
			Int("discrepancies", len(report.Discrepancies)).
			Bool("ledger_consistent", report.LedgerConsistent).
			Msg("reconciliation found problems")
	}

	return report, nil
}

// RepairAccount resets an account's stored balance to the sum of its ledger
// entries. The ledger is never modified.
func (uc *ReconciliationUseCase) RepairAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	lockCtx, cancel := context.WithTimeout(ctx, DefaultLockTimeout)
	defer cancel()

	unlock, err := uc.locker.Acquire(lockCtx, accountLockKey(accountID))
	if err != nil {
		if domain.KindOf(err) == domain.Timeout {
			return nil, err
		}
		return nil, domain.Errorf(domain.Timeout, "%w: %v", domain.ErrLockTimeout, err)
	}
	defer unlock()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, []string{accountID})
	if err != nil {
		return nil, classify(err)
	}

	if len(accounts) == 0 {
		return nil, domain.Errorf(domain.NotFound, "%w: %s", domain.ErrAccountNotFound, accountID)
	}

	sum, err := uc.entryRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, classify(err)
	}

	result := newResult(accountID, accounts[0].Balance, sum)
	if result.IsReconciled {
		return result, nil
	}

	if err := uc.accountRepo.SetBalance(ctx, tx, accountID, sum, time.Now().UTC()); err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify(err)
	}

	result.Repaired = true

	uc.logger.Warn().
		Str("account_id", accountID).
		Str("recorded", domain.FormatAmount(result.RecordedBalance)).
		Str("ledger", domain.FormatAmount(result.CalculatedBalance)).
		Msg("account balance repaired from ledger")

	return result, nil
}
