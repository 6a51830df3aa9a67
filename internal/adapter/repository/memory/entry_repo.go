package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Append buffers a balanced entry pair; sequences are assigned on commit.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Tx, entries []*domain.Entry) error {
	if err := domain.ValidateEntryPair(entries); err != nil {
		return err
	}

	mt, err := asTx(tx)
	if err != nil {
		return err
	}

	mt.entries = append(mt.entries, entries...)

	return nil
}

// GetByTransaction returns the entries a transaction posted, in sequence order.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	idx := r.store.byTxn[transactionID]
	entries := make([]*domain.Entry, 0, len(idx))
	for _, i := range idx {
		entries = append(entries, cloneEntry(r.store.entries[i]))
	}

	return entries, nil
}

// ListByAccount returns an account's entries in sequence order.
func (r *EntryRepository) ListByAccount(ctx context.Context, filter usecase.EntryFilter) ([]*domain.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := make([]*domain.Entry, 0)
	for _, i := range r.store.byAccount[filter.AccountID] {
		e := r.store.entries[i]
		if e.Sequence <= filter.AfterSequence {
			continue
		}
		if filter.Since != nil && e.CreatedAt.Before(*filter.Since) {
			continue
		}

		entries = append(entries, cloneEntry(e))
		if filter.Limit > 0 && len(entries) == filter.Limit {
			break
		}
	}

	return entries, nil
}

// SumByAccount returns the signed sum of an account's entries.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return r.sum(accountID, nil), nil
}

// BalanceAt returns the sum of an account's entries created at or before at.
func (r *EntryRepository) BalanceAt(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	return r.sum(accountID, &at), nil
}

func (r *EntryRepository) sum(accountID string, at *time.Time) decimal.Decimal {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	total := decimal.Zero
	for _, i := range r.store.byAccount[accountID] {
		e := r.store.entries[i]
		if at != nil && e.CreatedAt.After(*at) {
			continue
		}
		total = total.Add(e.Amount)
	}

	return total
}
