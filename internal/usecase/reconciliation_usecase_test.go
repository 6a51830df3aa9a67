package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/finledger/internal/adapter/repository/memory"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
	"github.com/iho/finledger/internal/usecase/mocks"
)

// corrupt overwrites a stored balance behind the ledger's back.
func corrupt(t *testing.T, h *harness, accountID string, balance decimal.Decimal) {
	t.Helper()

	ctx := context.Background()
	tx, err := memory.NewTxManager(h.store).Begin(ctx)
	require.NoError(t, err)

	accounts := memory.NewAccountRepository(h.store)
	_, err = accounts.GetByIDsForUpdate(ctx, tx, []string{accountID})
	require.NoError(t, err)
	require.NoError(t, accounts.SetBalance(ctx, tx, accountID, balance, time.Now().UTC()))
	require.NoError(t, tx.Commit(ctx))
}

func TestReconciliation_CleanLedger(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	a := h.open(t, "1001", "5000.00")
	b := h.open(t, "1001", "2500.00")
	_, err := h.transfers.Transfer(ctx, usecase.TransferInput{FromAccountID: a.ID, ToAccountID: b.ID, Amount: amount("500")})
	require.NoError(t, err)

	report, err := h.reconciliation.GenerateReconciliationReport(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalAccounts, "funding account is checked too")
	assert.Equal(t, 3, report.ReconciledAccounts)
	assert.Empty(t, report.Discrepancies)
	assert.True(t, report.LedgerConsistent)

	result, err := h.reconciliation.ReconcileAccount(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assertAmount(t, "3000", result.CalculatedBalance)
}

func TestReconciliation_DetectsAndRepairsDrift(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	a := h.open(t, "1001", "100.00")
	corrupt(t, h, a.ID, amount("999.99"))

	report, err := h.reconciliation.GenerateReconciliationReport(ctx)
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 1)
	assert.False(t, report.LedgerConsistent, "balances no longer sum to zero")
	assert.Equal(t, a.ID, report.Discrepancies[0].AccountID)
	assertAmount(t, "899.99", report.Discrepancies[0].Difference)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ReconciliationDiscrepancies))

	result, err := h.reconciliation.RepairAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, result.Repaired)
	assertAmount(t, "100", h.balance(t, a.ID))

	again, err := h.reconciliation.RepairAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, again.Repaired, "nothing left to repair")

	h.assertLedgerSound(t)
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.ReconciliationDiscrepancies))
}

func TestReconciliation_UnknownAccount(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.reconciliation.ReconcileAccount(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.NotFound)

	_, err = h.reconciliation.RepairAccount(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.NotFound)
}

func TestReconciliation_RepositoryErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerRepository(ctrl)

	ledger.EXPECT().BalanceChecks(gomock.Any()).Return(nil, errors.New("connection refused"))

	uc := usecase.NewReconciliationUseCase(nil, nil, nil, ledger, nil, nil, zerolog.Nop())

	_, err := uc.GenerateReconciliationReport(context.Background())
	assert.EqualError(t, err, "connection refused")
}
