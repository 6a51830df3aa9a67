package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/config"
	"github.com/iho/finledger/internal/usecase"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StorageDriver:   config.StorageMemory,
		LockBackend:     config.LockLocal,
		LockTimeout:     usecase.DefaultLockTimeout,
		OutboxBatchSize: 10,
	}
}

func TestNewAppMemory(t *testing.T) {
	ctx := context.Background()

	a, err := newApp(ctx, memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	funding, err := a.accounts.GetAccount(ctx, domain.FundingAccountID)
	require.NoError(t, err)
	assert.True(t, funding.IsSystem())

	assert.Nil(t, a.rateLimiter, "rate limiting is off when RATE_LIMIT_RPS is 0")

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()

	a, err := newApp(ctx, memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, seedDemoData(ctx, a, zerolog.Nop()))
	require.NoError(t, seedDemoData(ctx, a, zerolog.Nop()), "seeding twice is a no-op")

	want := map[string][]string{
		"1001": {"4500.00", "2750.00"},
		"1002": {"9250.00", "4000.00"},
	}
	for customer, balances := range want {
		accounts, err := a.queries.ListAccounts(ctx, usecase.ListAccountsInput{CustomerID: customer})
		require.NoError(t, err)
		require.Len(t, accounts, 2)

		got := []string{accounts[0].Balance.StringFixed(2), accounts[1].Balance.StringFixed(2)}
		assert.ElementsMatch(t, balances, got, customer)
	}

	consistent, err := a.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, consistent)
}

func TestNewAppRejectsUnreachableRedis(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisEnabled = true
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := newApp(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
