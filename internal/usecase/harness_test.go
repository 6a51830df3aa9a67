package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/adapter/lock"
	"github.com/iho/finledger/internal/adapter/repository/memory"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/usecase"
)

type sequentialIDs struct {
	prefix string
	n      atomic.Int64
}

func (g *sequentialIDs) Generate() string {
	return fmt.Sprintf("%s%08d", g.prefix, g.n.Add(1))
}

// deps are the collaborators a harness wires together. A test may swap any
// of them before the use cases are built.
type deps struct {
	txManager usecase.TxManager
	accounts  usecase.AccountRepository
	txns      usecase.TransactionRepository
	entries   usecase.EntryRepository
	refs      usecase.ReferenceRepository
	outbox    usecase.OutboxRepository
	ledger    usecase.LedgerRepository
	locker    usecase.Locker
	cache     usecase.TransactionCache
}

type harness struct {
	store   *memory.Store
	deps    deps
	locker  *lock.Local
	metrics *metrics.Metrics

	registry       *usecase.ReferenceRegistry
	transfers      *usecase.TransferUseCase
	accounts       *usecase.AccountUseCase
	queries        *usecase.QueryUseCase
	reconciliation *usecase.ReconciliationUseCase
}

func newHarness(t *testing.T, customize func(*deps), opts ...usecase.TransferOption) *harness {
	t.Helper()

	store := memory.NewStore()
	locker := lock.NewLocal()

	d := deps{
		txManager: memory.NewTxManager(store),
		accounts:  memory.NewAccountRepository(store),
		txns:      memory.NewTransactionRepository(store),
		entries:   memory.NewEntryRepository(store),
		refs:      memory.NewReferenceRepository(store),
		outbox:    memory.NewOutboxRepository(store),
		ledger:    memory.NewLedgerRepository(store),
		locker:    locker,
	}
	if customize != nil {
		customize(&d)
	}

	m := metrics.New(prometheus.NewRegistry())
	logger := zerolog.Nop()
	ids := &sequentialIDs{prefix: "id-"}

	h := &harness{store: store, deps: d, locker: locker, metrics: m}

	h.registry = usecase.NewReferenceRegistry(d.refs, d.txns, d.cache, logger)

	opts = append([]usecase.TransferOption{
		usecase.WithMetrics(m),
		usecase.WithLogger(logger),
		usecase.WithReferenceGenerator(&sequentialIDs{prefix: "gen"}),
	}, opts...)

	h.transfers = usecase.NewTransferUseCase(
		d.txManager, d.accounts, d.txns, d.entries, d.outbox, h.registry, d.locker, ids, opts...,
	)
	h.accounts = usecase.NewAccountUseCase(d.txManager, d.accounts, d.outbox, h.transfers, d.locker, ids, m, logger)
	h.queries = usecase.NewQueryUseCase(d.accounts, d.txns, d.entries, h.registry, nil)
	h.reconciliation = usecase.NewReconciliationUseCase(d.txManager, d.accounts, d.entries, d.ledger, d.locker, m, logger)

	_, err := h.accounts.EnsureFundingAccount(context.Background())
	require.NoError(t, err)

	return h
}

func (h *harness) open(t *testing.T, customerID, balance string) *domain.Account {
	t.Helper()

	account, err := h.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{
		CustomerID:     customerID,
		AccountType:    domain.AccountTypeChecking,
		InitialBalance: decimal.RequireFromString(balance),
	})
	require.NoError(t, err)

	return account
}

func (h *harness) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	account, err := h.accounts.GetAccount(context.Background(), id)
	require.NoError(t, err)

	return account.Balance
}

// assertLedgerSound checks the global invariants: all balances sum to zero,
// entries sum to zero and every stored balance equals its ledger sum.
func (h *harness) assertLedgerSound(t *testing.T) {
	t.Helper()

	ok, err := usecase.NewLedgerUseCase(h.deps.ledger).CheckConsistency(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	report, err := h.reconciliation.GenerateReconciliationReport(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Discrepancies)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, amount(want).Equal(got), "want %s, got %s", want, got.String())
}
