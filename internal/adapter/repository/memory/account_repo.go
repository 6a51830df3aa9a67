package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account outside any transaction.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.accounts[account.ID]; exists {
		return domain.Errorf(domain.Conflict, "account %s already exists", account.ID)
	}

	r.store.accounts[account.ID] = cloneAccount(account)

	return nil
}

// CreateTx creates a new account within a transaction.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}

	mt.base[account.ID] = nil
	mt.accounts[account.ID] = cloneAccount(account)

	return nil
}

// GetByID retrieves a committed account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.Errorf(domain.NotFound, "%w: %s", domain.ErrAccountNotFound, id)
	}

	return cloneAccount(a), nil
}

// GetByIDsForUpdate reads accounts into the transaction in id order. Missing
// ids are skipped. The memory store has no row locks: callers serialize
// through usecase.Locker and Commit rejects state that changed underneath.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	mt, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	accounts := make([]*domain.Account, 0, len(sorted))
	for _, id := range sorted {
		a, err := mt.account(id)
		if err != nil {
			continue
		}
		accounts = append(accounts, cloneAccount(a))
	}

	return accounts, nil
}

// ApplyDelta adds delta to the balance of the transaction's copy of the account.
func (r *AccountRepository) ApplyDelta(ctx context.Context, tx usecase.Tx, id string, delta decimal.Decimal, updatedAt time.Time) (*domain.Account, error) {
	mt, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	a, err := mt.account(id)
	if err != nil {
		return nil, err
	}

	a.Balance = a.Balance.Add(delta)
	a.Version++
	a.UpdatedAt = updatedAt

	return cloneAccount(a), nil
}

// SetBalance overwrites the balance, used only by reconciliation repair.
func (r *AccountRepository) SetBalance(ctx context.Context, tx usecase.Tx, id string, balance decimal.Decimal, updatedAt time.Time) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}

	a, err := mt.account(id)
	if err != nil {
		return err
	}

	a.Balance = balance
	a.Version++
	a.UpdatedAt = updatedAt

	return nil
}

// UpdateStatus changes the status of the transaction's copy of the account.
func (r *AccountRepository) UpdateStatus(ctx context.Context, tx usecase.Tx, id string, status domain.AccountStatus, updatedAt time.Time) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}

	a, err := mt.account(id)
	if err != nil {
		return err
	}

	a.Status = status
	a.UpdatedAt = updatedAt

	return nil
}

// List lists committed accounts ordered by creation time.
func (r *AccountRepository) List(ctx context.Context, filter usecase.AccountFilter) ([]*domain.Account, error) {
	r.store.mu.RLock()
	matched := make([]*domain.Account, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		if a.IsSystem() && !filter.IncludeSystem {
			continue
		}
		if filter.CustomerID != "" && a.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneAccount(a))
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	return page(matched, filter.Limit, filter.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}

	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
