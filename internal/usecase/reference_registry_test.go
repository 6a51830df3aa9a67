package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
	"github.com/iho/finledger/internal/usecase/mocks"
)

type registryMocks struct {
	refs  *mocks.MockReferenceRepository
	txns  *mocks.MockTransactionRepository
	cache *mocks.MockTransactionCache
}

func newRegistry(t *testing.T) (*usecase.ReferenceRegistry, registryMocks) {
	ctrl := gomock.NewController(t)
	m := registryMocks{
		refs:  mocks.NewMockReferenceRepository(ctrl),
		txns:  mocks.NewMockTransactionRepository(ctrl),
		cache: mocks.NewMockTransactionCache(ctrl),
	}

	return usecase.NewReferenceRegistry(m.refs, m.txns, m.cache, zerolog.Nop()), m
}

func completedTxn() *domain.Transaction {
	at := time.Now().UTC()
	return &domain.Transaction{
		ID:              "t1",
		ReferenceNumber: "REF-1",
		Status:          domain.TransactionStatusCompleted,
		Amount:          amount("10"),
		CreatedAt:       at,
		CompletedAt:     &at,
	}
}

func TestReferenceRegistry_CacheHitSkipsStorage(t *testing.T) {
	registry, m := newRegistry(t)
	want := completedTxn()

	m.cache.EXPECT().Get(gomock.Any(), "REF-1").Return(want, nil)

	got, err := registry.Resolve(context.Background(), "REF-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReferenceRegistry_MissFillsCache(t *testing.T) {
	registry, m := newRegistry(t)
	want := completedTxn()

	gomock.InOrder(
		m.cache.EXPECT().Get(gomock.Any(), "REF-1").Return(nil, nil),
		m.refs.EXPECT().Lookup(gomock.Any(), "REF-1").Return("t1", nil),
		m.txns.EXPECT().GetByID(gomock.Any(), "t1").Return(want, nil),
		m.cache.EXPECT().Set(gomock.Any(), want).Return(nil),
	)

	got, err := registry.Resolve(context.Background(), "REF-1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
}

func TestReferenceRegistry_CacheFailuresAreNotFatal(t *testing.T) {
	registry, m := newRegistry(t)
	want := completedTxn()

	m.cache.EXPECT().Get(gomock.Any(), "REF-1").Return(nil, errors.New("redis down"))
	m.refs.EXPECT().Lookup(gomock.Any(), "REF-1").Return("t1", nil)
	m.txns.EXPECT().GetByID(gomock.Any(), "t1").Return(want, nil)
	m.cache.EXPECT().Set(gomock.Any(), want).Return(errors.New("redis down"))

	got, err := registry.Resolve(context.Background(), "REF-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReferenceRegistry_UnknownReference(t *testing.T) {
	registry, m := newRegistry(t)

	m.cache.EXPECT().Get(gomock.Any(), "NOPE").Return(nil, nil)
	m.refs.EXPECT().Lookup(gomock.Any(), "NOPE").
		Return("", domain.Errorf(domain.NotFound, "%w: NOPE", domain.ErrReferenceNotFound))

	_, err := registry.Resolve(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)

	_, err = registry.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, domain.NotFound)
}

func TestReferenceRegistry_DanglingReferenceIsStorageFailure(t *testing.T) {
	registry, m := newRegistry(t)

	m.cache.EXPECT().Get(gomock.Any(), "REF-1").Return(nil, nil)
	m.refs.EXPECT().Lookup(gomock.Any(), "REF-1").Return("t1", nil)
	m.txns.EXPECT().GetByID(gomock.Any(), "t1").
		Return(nil, domain.Errorf(domain.NotFound, "%w: t1", domain.ErrTransactionNotFound))

	_, err := registry.Resolve(context.Background(), "REF-1")
	assert.ErrorIs(t, err, domain.StorageFailure)
}

func TestReferenceRegistry_RememberIgnoresPending(t *testing.T) {
	registry, _ := newRegistry(t)

	// no Set expectation: a pending transaction must never be cached
	registry.Remember(context.Background(), &domain.Transaction{ID: "t1", Status: domain.TransactionStatusPending})
	registry.Remember(context.Background(), nil)
}
