package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// QueryUseCase serves read-only views over accounts and the ledger.
// It never takes engine locks.
type QueryUseCase struct {
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	entryRepo   EntryRepository
	registry    *ReferenceRegistry
	retrier     Retrier
}

// NewQueryUseCase creates a new QueryUseCase. retrier may be nil.
func NewQueryUseCase(
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	entryRepo EntryRepository,
	registry *ReferenceRegistry,
	retrier Retrier,
) *QueryUseCase {
	return &QueryUseCase{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		entryRepo:   entryRepo,
		registry:    registry,
		retrier:     retrier,
	}
}

// HistoryInput represents input for an account's transaction history.
type HistoryInput struct {
	AccountID     string
	IncludeFailed bool
	Limit         int
	Offset        int
}

// History returns the transactions touching an account, most recent first.
// FAILED transactions are included only on request.
func (uc *QueryUseCase) History(ctx context.Context, input HistoryInput) ([]*domain.Transaction, error) {
	if _, err := uc.account(ctx, input.AccountID); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit, offset := domain.ValidatePagination(limit, input.Offset)

	var txns []*domain.Transaction
	err := uc.read(ctx, func() error {
		var err error
		txns, err = uc.txnRepo.ListByAccount(ctx, TransactionFilter{
			AccountID:     input.AccountID,
			IncludeFailed: input.IncludeFailed,
			Limit:         limit,
			Offset:        offset,
		})
		return err
	})

	return txns, err
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	CustomerID string
	Status     domain.AccountStatus
	Limit      int
	Offset     int
}

// ListAccounts lists customer accounts, optionally by customer and status.
func (uc *QueryUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, domain.Errorf(domain.InvalidRequest, "%w: %q", domain.ErrInvalidStatus, input.Status)
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	var accounts []*domain.Account
	err := uc.read(ctx, func() error {
		var err error
		accounts, err = uc.accountRepo.List(ctx, AccountFilter{
			CustomerID: strings.TrimSpace(input.CustomerID),
			Status:     input.Status,
			Limit:      limit,
			Offset:     offset,
		})
		return err
	})

	return accounts, err
}

// GetTransaction retrieves a transaction by ID.
func (uc *QueryUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := uc.read(ctx, func() error {
		var err error
		txn, err = uc.txnRepo.GetByID(ctx, id)
		return err
	})

	return txn, err
}

// TransactionEntries returns the ledger entries posted by a transaction.
// A FAILED transaction has none.
func (uc *QueryUseCase) TransactionEntries(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	err := uc.read(ctx, func() error {
		var err error
		entries, err = uc.entryRepo.GetByTransaction(ctx, transactionID)
		return err
	})

	return entries, err
}

// Resolve returns the terminal transaction a reference number resolved to.
func (uc *QueryUseCase) Resolve(ctx context.Context, reference string) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := uc.read(ctx, func() error {
		var err error
		txn, err = uc.registry.Resolve(ctx, reference)
		return err
	})

	return txn, err
}

// Entries lists an account's ledger entries in posting order. Passing the last
// seen Sequence as AfterSequence continues the listing where it stopped.
func (uc *QueryUseCase) Entries(ctx context.Context, filter EntryFilter) ([]*domain.Entry, error) {
	if _, err := uc.account(ctx, filter.AccountID); err != nil {
		return nil, err
	}

	if filter.AfterSequence < 0 {
		filter.AfterSequence = 0
	}
	filter.Limit, _ = domain.ValidatePagination(filter.Limit, 0)

	var entries []*domain.Entry
	err := uc.read(ctx, func() error {
		var err error
		entries, err = uc.entryRepo.ListByAccount(ctx, filter)
		return err
	})

	return entries, err
}

// BalanceAt returns an account's balance as of a point in time, derived from the ledger.
func (uc *QueryUseCase) BalanceAt(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	if _, err := uc.account(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err := uc.read(ctx, func() error {
		var err error
		balance, err = uc.entryRepo.BalanceAt(ctx, accountID, at)
		return err
	})

	return balance, err
}

func (uc *QueryUseCase) account(ctx context.Context, id string) (*domain.Account, error) {
	var account *domain.Account
	err := uc.read(ctx, func() error {
		var err error
		account, err = uc.accountRepo.GetByID(ctx, id)
		return err
	})

	return account, err
}

func (uc *QueryUseCase) read(ctx context.Context, fn func() error) error {
	if uc.retrier == nil {
		return fn()
	}

	return uc.retrier.Retry(ctx, fn)
}
