package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create buffers a terminal transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	if !txn.Status.IsTerminal() {
		return domain.Errorf(domain.InvalidRequest, "transaction %s must be terminal to be stored, got %s", txn.ID, txn.Status)
	}

	mt, err := asTx(tx)
	if err != nil {
		return err
	}

	mt.transactions = append(mt.transactions, cloneTransaction(txn))

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return nil, domain.Errorf(domain.NotFound, "%w: %s", domain.ErrTransactionNotFound, id)
	}

	return cloneTransaction(txn), nil
}

// GetReversalOf returns the completed reversal of a transaction.
func (r *TransactionRepository) GetReversalOf(ctx context.Context, originalID string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.reversals[originalID]
	if !ok {
		return nil, domain.Errorf(domain.NotFound, "%w: no reversal of %s", domain.ErrTransactionNotFound, originalID)
	}

	return cloneTransaction(r.store.transactions[id]), nil
}

// ListByAccount joins the account's ledger entries back to their transactions,
// adding FAILED transactions when asked. Results are newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	r.store.mu.RLock()

	seen := make(map[string]bool)
	txns := make([]*domain.Transaction, 0)
	for _, i := range r.store.byAccount[filter.AccountID] {
		id := r.store.entries[i].TransactionID
		if seen[id] {
			continue
		}
		seen[id] = true
		txns = append(txns, cloneTransaction(r.store.transactions[id]))
	}

	if filter.IncludeFailed {
		for _, txn := range r.store.transactions {
			if txn.Status == domain.TransactionStatusFailed && txn.Touches(filter.AccountID) {
				txns = append(txns, cloneTransaction(txn))
			}
		}
	}

	r.store.mu.RUnlock()

	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].CreatedAt.Equal(txns[j].CreatedAt) {
			return txns[i].CreatedAt.After(txns[j].CreatedAt)
		}
		return txns[i].ID > txns[j].ID
	})

	return page(txns, filter.Limit, filter.Offset), nil
}

// ReferenceRepository implements usecase.ReferenceRepository.
type ReferenceRepository struct {
	store *Store
}

// NewReferenceRepository creates a new ReferenceRepository.
func NewReferenceRepository(store *Store) *ReferenceRepository {
	return &ReferenceRepository{store: store}
}

// Register buffers a reference. Uniqueness is checked here and again on commit.
func (r *ReferenceRepository) Register(ctx context.Context, tx usecase.Tx, reference, transactionID string, at time.Time) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}

	if _, taken := mt.references[reference]; taken {
		return domain.Errorf(domain.Conflict, "%w: %s", domain.ErrReferenceTaken, reference)
	}

	r.store.mu.RLock()
	_, taken := r.store.references[reference]
	r.store.mu.RUnlock()

	if taken {
		return domain.Errorf(domain.Conflict, "%w: %s", domain.ErrReferenceTaken, reference)
	}

	mt.references[reference] = transactionID

	return nil
}

// Lookup returns the transaction ID a reference resolved to.
func (r *ReferenceRepository) Lookup(ctx context.Context, reference string) (string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.references[reference]
	if !ok {
		return "", domain.Errorf(domain.NotFound, "%w: %s", domain.ErrReferenceNotFound, reference)
	}

	return id, nil
}
