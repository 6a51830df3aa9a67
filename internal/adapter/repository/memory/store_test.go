package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

type fixture struct {
	store    *Store
	txm      *TxManager
	accounts *AccountRepository
	entries  *EntryRepository
	txns     *TransactionRepository
	refs     *ReferenceRepository
	ledger   *LedgerRepository
	outbox   *OutboxRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := NewStore()
	f := &fixture{
		store:    store,
		txm:      NewTxManager(store),
		accounts: NewAccountRepository(store),
		entries:  NewEntryRepository(store),
		txns:     NewTransactionRepository(store),
		refs:     NewReferenceRepository(store),
		ledger:   NewLedgerRepository(store),
		outbox:   NewOutboxRepository(store),
	}

	now := time.Now().UTC()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, f.accounts.Create(context.Background(), &domain.Account{
			ID:          id,
			CustomerID:  "c1",
			AccountType: domain.AccountTypeChecking,
			Status:      domain.AccountStatusActive,
			Balance:     decimal.Zero,
			CreatedAt:   now,
			UpdatedAt:   now,
		}))
	}

	return f
}

func (f *fixture) post(t *testing.T, ctx context.Context, txnID, ref string, amount decimal.Decimal) error {
	t.Helper()

	tx, err := f.txm.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:              txnID,
		ReferenceNumber: ref,
		FromAccountID:   "a",
		ToAccountID:     "b",
		Type:            domain.TransactionTypeTransfer,
		Status:          domain.TransactionStatusCompleted,
		Amount:          amount,
		CreatedAt:       now,
	}

	if err := f.txns.Create(ctx, tx, txn); err != nil {
		return err
	}
	if err := f.refs.Register(ctx, tx, ref, txnID, now); err != nil {
		return err
	}
	if err := f.entries.Append(ctx, tx, []*domain.Entry{
		{ID: txnID + "-d", AccountID: "a", TransactionID: txnID, Amount: amount.Neg(), CreatedAt: now},
		{ID: txnID + "-c", AccountID: "b", TransactionID: txnID, Amount: amount, CreatedAt: now},
	}); err != nil {
		return err
	}
	if _, err := f.accounts.ApplyDelta(ctx, tx, "a", amount.Neg(), now); err != nil {
		return err
	}
	if _, err := f.accounts.ApplyDelta(ctx, tx, "b", amount, now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func TestStore_CommitAppliesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.post(t, ctx, "t1", "REF-1", decimal.RequireFromString("5.00")))

	a, err := f.accounts.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.RequireFromString("-5")))
	assert.Equal(t, int64(1), a.Version)

	id, err := f.refs.Lookup(ctx, "REF-1")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	entries, err := f.entries.GetByTransaction(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Sequence)
	assert.Equal(t, int64(2), entries[1].Sequence)

	total, sum, err := f.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.True(t, sum.IsZero())
}

func TestStore_RollbackDiscards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.txm.Begin(ctx)
	require.NoError(t, err)

	_, err = f.accounts.ApplyDelta(ctx, tx, "a", decimal.NewFromInt(10), time.Now())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	a, err := f.accounts.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, a.Balance.IsZero())

	assert.ErrorIs(t, tx.Commit(ctx), errTxClosed)
}

func TestStore_DuplicateReferenceRejectsWholeUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.post(t, ctx, "t1", "REF-1", decimal.NewFromInt(1)))

	err := f.post(t, ctx, "t2", "REF-1", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrReferenceTaken)

	_, err = f.txns.GetByID(ctx, "t2")
	assert.ErrorIs(t, err, domain.NotFound)

	b, err := f.accounts.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(1)))
}

func TestStore_CommitDetectsConcurrentChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale, err := f.txm.Begin(ctx)
	require.NoError(t, err)
	_, err = f.accounts.GetByIDsForUpdate(ctx, stale, []string{"a"})
	require.NoError(t, err)

	require.NoError(t, f.post(t, ctx, "t1", "REF-1", decimal.NewFromInt(1)))

	require.NoError(t, f.accounts.UpdateStatus(ctx, stale, "a", domain.AccountStatusFrozen, time.Now()))
	assert.ErrorIs(t, stale.Commit(ctx), domain.ErrConcurrentUpdate)
}

func TestStore_CommitHonoursDeadline(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	tx, err := f.txm.Begin(ctx)
	require.NoError(t, err)
	cancel()

	err = tx.Commit(ctx)
	assert.ErrorIs(t, err, domain.Timeout)
}

func TestEntryRepository_ListRestartsFromSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, ref := range []string{"R1", "R2", "R3"} {
		require.NoError(t, f.post(t, ctx, "t"+ref, ref, decimal.NewFromInt(int64(i+1))))
	}

	first, err := f.entries.ListByAccount(ctx, usecase.EntryFilter{AccountID: "b", Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	rest, err := f.entries.ListByAccount(ctx, usecase.EntryFilter{AccountID: "b", AfterSequence: first[1].Sequence})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "tR3", rest[0].TransactionID)

	sum, err := f.entries.SumByAccount(ctx, "b")
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(6)))

	past, err := f.entries.BalanceAt(ctx, "b", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, past.IsZero())
}

func TestTransactionRepository_ListByAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.post(t, ctx, "t1", "R1", decimal.NewFromInt(1)))

	tx, err := f.txm.Begin(ctx)
	require.NoError(t, err)
	failed := &domain.Transaction{
		ID:            "t2",
		FromAccountID: "a",
		ToAccountID:   "b",
		Status:        domain.TransactionStatusFailed,
		Amount:        decimal.NewFromInt(9),
		CreatedAt:     time.Now().UTC().Add(time.Second),
	}
	require.NoError(t, f.txns.Create(ctx, tx, failed))
	require.NoError(t, tx.Commit(ctx))

	completedOnly, err := f.txns.ListByAccount(ctx, usecase.TransactionFilter{AccountID: "a"})
	require.NoError(t, err)
	require.Len(t, completedOnly, 1)

	all, err := f.txns.ListByAccount(ctx, usecase.TransactionFilter{AccountID: "a", IncludeFailed: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "t2", all[0].ID, "newest first")
}

func TestOutboxRepository_PublishCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.txm.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.outbox.Create(ctx, tx, &domain.OutboxEvent{ID: "e1", EventType: domain.EventTypeAccountOpened}))
	require.NoError(t, tx.Commit(ctx))

	events, err := f.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, f.outbox.MarkPublished(ctx, "e1", time.Now()))

	events, err = f.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLedger_UnbalancedTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.post(t, ctx, "t1", "REF-1", decimal.RequireFromString("5.00")))

	checks, err := f.ledger.UnbalancedTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, checks)

	tx, err := f.txm.Begin(ctx)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, f.txns.Create(ctx, tx, &domain.Transaction{
		ID: "t2", ReferenceNumber: "REF-2", FromAccountID: "a", ToAccountID: "b",
		Type: domain.TransactionTypeTransfer, Status: domain.TransactionStatusCompleted,
		Amount: decimal.NewFromInt(1), CreatedAt: now,
	}))
	require.NoError(t, f.txns.Create(ctx, tx, &domain.Transaction{
		ID: "t3", ReferenceNumber: "REF-3", FromAccountID: "a", ToAccountID: "b",
		Type: domain.TransactionTypeTransfer, Status: domain.TransactionStatusFailed,
		Amount: decimal.NewFromInt(1), CreatedAt: now,
	}))
	require.NoError(t, f.entries.Append(ctx, tx, []*domain.Entry{
		{ID: "e-3a", AccountID: "a", TransactionID: "t3", Amount: decimal.NewFromInt(-1), CreatedAt: now},
		{ID: "e-3b", AccountID: "b", TransactionID: "t3", Amount: decimal.NewFromInt(1), CreatedAt: now},
	}))
	require.NoError(t, tx.Commit(ctx))

	checks, err = f.ledger.UnbalancedTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, checks, 2)

	assert.Equal(t, "t2", checks[0].TransactionID)
	assert.Equal(t, 0, checks[0].EntryCount, "completed without entries")

	assert.Equal(t, "t3", checks[1].TransactionID)
	assert.Equal(t, domain.TransactionStatusFailed, checks[1].Status)
	assert.Equal(t, 2, checks[1].EntryCount, "failed with entries")
	assert.True(t, checks[1].EntrySum.IsZero())
}
