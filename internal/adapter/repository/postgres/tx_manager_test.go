package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/domain"
)

func TestTxManager_CommitThenRollbackIsNoop(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectCommit()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	// deferred rollbacks after a commit must not fail the unit of work
	_ = tx.Rollback(context.Background())

	assertExpectations(t, mockPool)
}

func TestTxManager_BeginErrorsCarryKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.Kind
	}{
		{name: "connection lost", err: errors.New("begin failed"), kind: domain.StorageFailure},
		{name: "deadline", err: context.DeadlineExceeded, kind: domain.Timeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			mockPool.ExpectBegin().WillReturnError(tt.err)

			tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
			assert.Nil(t, tx)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestTxManager_CommitMapsConstraintViolations(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectCommit().WillReturnError(&pgconn.PgError{
		Code:           pgErrUniqueViolation,
		ConstraintName: constraintReferenceUnique,
	})

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	require.NoError(t, err)

	err = tx.Commit(context.Background())
	assert.ErrorIs(t, err, domain.Conflict)
	assert.ErrorIs(t, err, domain.ErrReferenceTaken)
}

func TestTxManager_Rollback(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectRollback()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))

	assertExpectations(t, mockPool)
}

type foreignTx struct{}

func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }

func TestTxQueries_RejectsForeignTransactions(t *testing.T) {
	_, err := txQueries(foreignTx{})
	assert.ErrorContains(t, err, "unexpected transaction type")
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	assert.NoError(t, pool.ExpectationsWereMet())
}
