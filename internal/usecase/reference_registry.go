package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/finledger/internal/domain"
)

// ReferenceRegistry resolves reference numbers to their terminal transaction.
// A cache miss or cache failure always falls through to storage.
type ReferenceRegistry struct {
	refRepo ReferenceRepository
	txnRepo TransactionRepository
	cache   TransactionCache
	logger  zerolog.Logger
}

// NewReferenceRegistry creates a new ReferenceRegistry. cache may be nil.
func NewReferenceRegistry(
	refRepo ReferenceRepository,
	txnRepo TransactionRepository,
	cache TransactionCache,
	logger zerolog.Logger,
) *ReferenceRegistry {
	return &ReferenceRegistry{
		refRepo: refRepo,
		txnRepo: txnRepo,
		cache:   cache,
		logger:  logger,
	}
}

// Resolve returns the transaction a reference resolved to, or a NotFound error.
func (r *ReferenceRegistry) Resolve(ctx context.Context, reference string) (*domain.Transaction, error) {
	if reference == "" {
		return nil, domain.NewError(domain.NotFound, domain.ErrReferenceNotFound)
	}

	if r.cache != nil {
		txn, err := r.cache.Get(ctx, reference)
		if err != nil {
			r.logger.Warn().Err(err).Str("reference", reference).Msg("reference cache read failed")
		} else if txn != nil {
			return txn, nil
		}
	}

	txnID, err := r.refRepo.Lookup(ctx, reference)
	if err != nil {
		return nil, err
	}

	txn, err := r.txnRepo.GetByID(ctx, txnID)
	if err != nil {
		if errors.Is(err, domain.NotFound) {
			// a registered reference always has its transaction in the same commit
			return nil, domain.Errorf(domain.StorageFailure, "reference %s points at missing transaction %s", reference, txnID)
		}
		return nil, err
	}

	r.Remember(ctx, txn)

	return txn, nil
}

// Register records the reference inside the caller's storage transaction.
func (r *ReferenceRegistry) Register(ctx context.Context, tx Tx, reference, transactionID string, at time.Time) error {
	return r.refRepo.Register(ctx, tx, reference, transactionID, at)
}

// Remember caches a terminal transaction. Failures are logged and ignored.
func (r *ReferenceRegistry) Remember(ctx context.Context, txn *domain.Transaction) {
	if r.cache == nil || txn == nil || !txn.Status.IsTerminal() {
		return
	}

	if err := r.cache.Set(ctx, txn); err != nil {
		r.logger.Warn().Err(err).Str("reference", txn.ReferenceNumber).Msg("reference cache write failed")
	}
}
