package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

var accountColumns = []string{
	"id", "customer_id", "account_type", "balance", "status",
	"allow_negative_balance", "version", "created_at", "updated_at",
}

var transactionColumns = []string{
	"id", "reference_number", "from_account_id", "to_account_id", "amount", "type", "status",
	"failure_kind", "failure_reason", "reverses_transaction_id", "created_at", "completed_at",
}

func ts(t time.Time) pgtype.Timestamptz {
	return timeToPgTimestamptz(t)
}

func beginTx(t *testing.T, mock pgxmock.PgxPoolIface) usecase.Tx {
	t.Helper()

	mock.ExpectBegin()
	tx, err := newTxManagerWithPool(mock).Begin(context.Background())
	require.NoError(t, err)

	return tx
}

func TestDecimalNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "12.50", "-0.01", "1000000000000.00"} {
		d := decimal.RequireFromString(s)
		assert.True(t, d.Equal(numericToDecimal(decimalToNumeric(d))), s)
	}

	assert.True(t, numericToDecimal(pgtype.Numeric{}).IsZero())
}

func TestAccountRepository_GetByID(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAccountRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM accounts WHERE id = \\$1").
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(
			"acc-1", "1001", domain.AccountTypeSavings, decimalToNumeric(decimal.RequireFromString("5000.00")),
			"ACTIVE", false, int64(3), ts(now), ts(now),
		))

	account, err := repo.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, "1001", account.CustomerID)
	assert.Equal(t, domain.AccountStatusActive, account.Status)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, int64(3), account.Version)

	assertExpectations(t, mock)
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAccountRepository(mock)

	mock.ExpectQuery("SELECT .* FROM accounts WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.NotFound)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_ApplyDeltaNegativeBalance(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAccountRepository(mock)
	tx := beginTx(t, mock)

	mock.ExpectQuery("UPDATE accounts").
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: constraintNonNegativeFunds})

	_, err := repo.ApplyDelta(context.Background(), tx, "acc-1", decimal.NewFromInt(-10), time.Now())
	assert.ErrorIs(t, err, domain.InsufficientFunds)
}

func TestAccountRepository_UpdateStatusMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAccountRepository(mock)
	tx := beginTx(t, mock)

	mock.ExpectExec("UPDATE accounts").
		WithArgs("ghost", "FROZEN", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), tx, "ghost", domain.AccountStatusFrozen, time.Now())
	assert.ErrorIs(t, err, domain.NotFound)

	assertExpectations(t, mock)
}

func TestAccountRepository_ListPassesFilter(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAccountRepository(mock)

	mock.ExpectQuery("SELECT .* FROM accounts").
		WithArgs("1001", "ACTIVE", false, int32(10), int32(0)).
		WillReturnRows(pgxmock.NewRows(accountColumns))

	accounts, err := repo.List(context.Background(), usecase.AccountFilter{
		CustomerID: "1001",
		Status:     domain.AccountStatusActive,
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Empty(t, accounts)

	assertExpectations(t, mock)
}

func TestEntryRepository_AppendRecordsSequence(t *testing.T) {
	mock := newMockPool(t)
	repo := NewEntryRepository(mock)
	tx := beginTx(t, mock)

	entries := []*domain.Entry{
		{ID: "e1", AccountID: "a", TransactionID: "t1", Amount: decimal.NewFromInt(-5)},
		{ID: "e2", AccountID: "b", TransactionID: "t1", Amount: decimal.NewFromInt(5)},
	}

	mock.ExpectQuery("INSERT INTO entries").
		WithArgs("e1", "a", "t1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"sequence"}).AddRow(int64(41)))
	mock.ExpectQuery("INSERT INTO entries").
		WithArgs("e2", "b", "t1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"sequence"}).AddRow(int64(42)))

	require.NoError(t, repo.Append(context.Background(), tx, entries))

	assert.Equal(t, int64(41), entries[0].Sequence)
	assert.Equal(t, int64(42), entries[1].Sequence)
	assertExpectations(t, mock)
}

func TestTransactionRepository_GetByIDMapsReversal(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTransactionRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM transactions WHERE id = \\$1").
		WithArgs("t2").
		WillReturnRows(pgxmock.NewRows(transactionColumns).AddRow(
			"t2", "TXN-REV", "b", "a", decimalToNumeric(decimal.NewFromInt(5)), "REVERSAL", "COMPLETED",
			"", "", pgtype.Text{String: "t1", Valid: true}, ts(now), ts(now),
		))

	txn, err := repo.GetByID(context.Background(), "t2")
	require.NoError(t, err)

	require.NotNil(t, txn.ReversesTransactionID)
	assert.Equal(t, "t1", *txn.ReversesTransactionID)
	assert.Equal(t, domain.TransactionTypeReversal, txn.Type)
	require.NotNil(t, txn.CompletedAt)
}

func TestTransactionRepository_CreateRejectsPending(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTransactionRepository(mock)
	tx := beginTx(t, mock)

	err := repo.Create(context.Background(), tx, &domain.Transaction{ID: "t1", Status: domain.TransactionStatusPending})
	assert.ErrorIs(t, err, domain.InvalidRequest)
}

func TestReferenceRepository_RegisterDuplicate(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReferenceRepository(mock)
	tx := beginTx(t, mock)

	mock.ExpectExec("INSERT INTO transaction_references").
		WithArgs("TXN-1", "t1", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintReferencePK})

	err := repo.Register(context.Background(), tx, "TXN-1", "t1", time.Now())
	assert.ErrorIs(t, err, domain.ErrReferenceTaken)
	assert.ErrorIs(t, err, domain.Conflict)
}

func TestReferenceRepository_Lookup(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReferenceRepository(mock)

	mock.ExpectQuery("SELECT transaction_id FROM transaction_references").
		WithArgs("TXN-1").
		WillReturnRows(pgxmock.NewRows([]string{"transaction_id"}).AddRow("t1"))
	mock.ExpectQuery("SELECT transaction_id FROM transaction_references").
		WithArgs("TXN-2").
		WillReturnError(pgx.ErrNoRows)

	id, err := repo.Lookup(context.Background(), "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	_, err = repo.Lookup(context.Background(), "TXN-2")
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestLedgerRepository_BalanceChecks(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLedgerRepository(mock)

	mock.ExpectQuery("SELECT a.id, a.balance").
		WillReturnRows(pgxmock.NewRows([]string{"id", "balance", "ledger_balance"}).
			AddRow("a", decimalToNumeric(decimal.NewFromInt(10)), decimalToNumeric(decimal.NewFromInt(10))).
			AddRow("b", decimalToNumeric(decimal.NewFromInt(7)), decimalToNumeric(decimal.NewFromInt(5))))

	checks, err := repo.BalanceChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, checks, 2)

	assert.True(t, checks[1].RecordedBalance.Equal(decimal.NewFromInt(7)))
	assert.True(t, checks[1].LedgerBalance.Equal(decimal.NewFromInt(5)))
}

func TestLedgerRepository_UnbalancedTransactions(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLedgerRepository(mock)

	mock.ExpectQuery("SELECT t.id, t.status").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "entry_count", "entry_sum"}).
			AddRow("t1", "COMPLETED", int32(2), decimalToNumeric(decimal.RequireFromString("0.01"))).
			AddRow("t2", "FAILED", int32(2), decimalToNumeric(decimal.Zero)))

	checks, err := repo.UnbalancedTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, checks, 2)

	assert.Equal(t, domain.TransactionStatusCompleted, checks[0].Status)
	assert.True(t, checks[0].EntrySum.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, domain.TransactionStatusFailed, checks[1].Status)
	assert.Equal(t, 2, checks[1].EntryCount)
	assertExpectations(t, mock)
}

func TestLedgerRepository_UnbalancedTransactionsError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLedgerRepository(mock)

	mock.ExpectQuery("SELECT t.id, t.status").WillReturnError(context.DeadlineExceeded)

	_, err := repo.UnbalancedTransactions(context.Background())
	assert.ErrorIs(t, err, domain.Timeout)
}

func TestOutboxRepository_MarkPublishedMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOutboxRepository(mock)

	mock.ExpectExec("UPDATE outbox_events").
		WithArgs("evt-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.MarkPublished(context.Background(), "evt-1", time.Now())
	assert.ErrorIs(t, err, domain.NotFound)
}
