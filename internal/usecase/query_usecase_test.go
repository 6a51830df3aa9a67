package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
	"github.com/iho/finledger/internal/usecase/mocks"
)

func TestQuery_HistoryNewestFirst(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	a := h.open(t, "1001", "100.00")
	b := h.open(t, "1002", "0")

	var ids []string
	for _, amt := range []string{"1", "2", "3"} {
		txn, err := h.transfers.Transfer(ctx, usecase.TransferInput{FromAccountID: a.ID, ToAccountID: b.ID, Amount: amount(amt)})
		require.NoError(t, err)
		ids = append(ids, txn.ID)
	}

	history, err := h.queries.History(ctx, usecase.HistoryInput{AccountID: b.ID})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{history[0].ID, history[1].ID, history[2].ID})

	page, err := h.queries.History(ctx, usecase.HistoryInput{AccountID: b.ID, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)

	_, err = h.queries.History(ctx, usecase.HistoryInput{AccountID: "missing"})
	assert.ErrorIs(t, err, domain.NotFound)
}

func TestQuery_EntriesAndBalanceAt(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	a := h.open(t, "1001", "100.00")
	b := h.open(t, "1002", "0")

	for _, amt := range []string{"10", "20", "30"} {
		_, err := h.transfers.Transfer(ctx, usecase.TransferInput{FromAccountID: a.ID, ToAccountID: b.ID, Amount: amount(amt)})
		require.NoError(t, err)
	}

	first, err := h.queries.Entries(ctx, usecase.EntryFilter{AccountID: b.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Less(t, first[0].Sequence, first[1].Sequence)

	rest, err := h.queries.Entries(ctx, usecase.EntryFilter{AccountID: b.ID, AfterSequence: first[1].Sequence})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assertAmount(t, "30", rest[0].Amount)
	assertAmount(t, "60", rest[0].AccountCurrentBalance)

	now, err := h.queries.BalanceAt(ctx, a.ID, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assertAmount(t, "40", now)

	before, err := h.queries.BalanceAt(ctx, a.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, before.IsZero())
}

func TestQuery_ListAccounts(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	first := h.open(t, "1001", "0")
	h.open(t, "1001", "0")
	h.open(t, "1002", "0")

	_, err := h.accounts.ChangeStatus(ctx, first.ID, domain.AccountStatusFrozen)
	require.NoError(t, err)

	all, err := h.queries.ListAccounts(ctx, usecase.ListAccountsInput{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "system accounts are hidden")

	mine, err := h.queries.ListAccounts(ctx, usecase.ListAccountsInput{CustomerID: "1001"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	frozen, err := h.queries.ListAccounts(ctx, usecase.ListAccountsInput{Status: domain.AccountStatusFrozen})
	require.NoError(t, err)
	require.Len(t, frozen, 1)
	assert.Equal(t, first.ID, frozen[0].ID)

	_, err = h.queries.ListAccounts(ctx, usecase.ListAccountsInput{Status: "ASLEEP"})
	assert.ErrorIs(t, err, domain.InvalidRequest)
}

func TestQuery_ResolveUnknownReference(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.queries.Resolve(context.Background(), "NEVER-SEEN")
	assert.ErrorIs(t, err, domain.NotFound)

	_, err = h.queries.GetTransaction(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.NotFound)
}

func TestQuery_ReadsGoThroughRetrier(t *testing.T) {
	ctrl := gomock.NewController(t)
	retrier := mocks.NewMockRetrier(ctrl)
	txns := mocks.NewMockTransactionRepository(ctrl)

	want := &domain.Transaction{ID: "t1", Status: domain.TransactionStatusCompleted}

	retrier.EXPECT().
		Retry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op func() error) error {
			return op()
		})
	txns.EXPECT().GetByID(gomock.Any(), "t1").Return(want, nil)

	uc := usecase.NewQueryUseCase(nil, txns, nil, nil, retrier)

	got, err := uc.GetTransaction(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
