package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// AccountFilter narrows account listings. Zero values mean "any".
type AccountFilter struct {
	CustomerID    string
	Status        domain.AccountStatus
	IncludeSystem bool
	Limit         int
	Offset        int
}

// EntryFilter selects ledger entries of one account in ascending order.
// AfterSequence makes the listing restartable from the last entry seen.
type EntryFilter struct {
	Since         *time.Time
	AccountID     string
	AfterSequence int64
	Limit         int
}

// TransactionFilter selects transactions touching one account, newest first.
type TransactionFilter struct {
	AccountID     string
	IncludeFailed bool
	Limit         int
	Offset        int
}

// BalanceCheck compares an account's stored balance with its ledger sum.
type BalanceCheck struct {
	AccountID       string
	RecordedBalance decimal.Decimal
	LedgerBalance   decimal.Decimal
}

// TransactionCheck describes a transaction whose entries break double entry:
// a COMPLETED one without exactly two entries summing to zero, or a FAILED
// one with any entries.
type TransactionCheck struct {
	TransactionID string
	Status        domain.TransactionStatus
	EntryCount    int
	EntrySum      decimal.Decimal
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	CreateTx(ctx context.Context, tx Tx, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Tx, ids []string) ([]*domain.Account, error)
	// ApplyDelta adds a signed amount to the balance, bumps the version and
	// returns the account as it will be after commit.
	ApplyDelta(ctx context.Context, tx Tx, id string, delta decimal.Decimal, updatedAt time.Time) (*domain.Account, error)
	SetBalance(ctx context.Context, tx Tx, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, tx Tx, id string, status domain.AccountStatus, updatedAt time.Time) error
	List(ctx context.Context, filter AccountFilter) ([]*domain.Account, error)
}

// EntryRepository defines data access for the append-only ledger.
type EntryRepository interface {
	Append(ctx context.Context, tx Tx, entries []*domain.Entry) error
	GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	ListByAccount(ctx context.Context, filter EntryFilter) ([]*domain.Entry, error)
	SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
	BalanceAt(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
}

// TransactionRepository defines data access for transactions.
// Rows are written once, in their terminal state.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetReversalOf(ctx context.Context, originalID string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)
}

// ReferenceRepository maps reference numbers to the transaction they resolved to.
type ReferenceRepository interface {
	// Register fails with domain.ErrReferenceTaken if the reference already exists.
	Register(ctx context.Context, tx Tx, reference, transactionID string, at time.Time) error
	Lookup(ctx context.Context, reference string) (string, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalBalance, totalAmount decimal.Decimal, err error)
	BalanceChecks(ctx context.Context) ([]BalanceCheck, error)
	// UnbalancedTransactions returns only the offending transactions.
	UnbalancedTransactions(ctx context.Context) ([]TransactionCheck, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Tx, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// Tx represents a storage transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles transaction lifecycle.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Locker serializes work on named keys. Implementations acquire keys in sorted
// order and return a release func that unlocks them in reverse.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (func(), error)
}

// TransactionCache keeps terminal transactions by reference number.
// Get returns (nil, nil) on a miss.
type TransactionCache interface {
	Get(ctx context.Context, reference string) (*domain.Transaction, error)
	Set(ctx context.Context, txn *domain.Transaction) error
}

// Retrier re-runs read operations on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
