// Package memory is an in-process storage backend. Writes made through a Tx
// are buffered and applied atomically on Commit under the store's write lock,
// so readers only ever see committed state.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

var errTxClosed = errors.New("memory: transaction already closed")

// Store holds all ledger state.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction
	references   map[string]string
	reversals    map[string]string
	entries      []*domain.Entry
	byAccount    map[string][]int
	byTxn        map[string][]int
	outbox       []*domain.OutboxEvent
	seq          int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
		references:   make(map[string]string),
		reversals:    make(map[string]string),
		byAccount:    make(map[string][]int),
		byTxn:        make(map[string][]int),
	}
}

// TxManager implements usecase.TxManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:      m.store,
		accounts:   make(map[string]*domain.Account),
		base:       make(map[string]*domain.Account),
		references: make(map[string]string),
	}, nil
}

// Tx buffers writes until Commit.
type Tx struct {
	store *Store

	// accounts are working copies; base holds the committed state they were
	// read from, nil for accounts created in this transaction.
	accounts map[string]*domain.Account
	base     map[string]*domain.Account

	transactions []*domain.Transaction
	references   map[string]string
	entries      []*domain.Entry
	events       []*domain.OutboxEvent
	done         bool
}

// Commit applies the buffered writes. Nothing is applied if any check fails.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxClosed
	}
	t.done = true

	if err := ctx.Err(); err != nil {
		return domain.Errorf(domain.Timeout, "%w: %v", domain.ErrCommitTimeout, err)
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := t.validate(); err != nil {
		return err
	}

	for id, a := range t.accounts {
		s.accounts[id] = cloneAccount(a)
	}

	for _, txn := range t.transactions {
		s.transactions[txn.ID] = cloneTransaction(txn)
		if txn.ReversesTransactionID != nil && txn.Status == domain.TransactionStatusCompleted {
			s.reversals[*txn.ReversesTransactionID] = txn.ID
		}
	}

	for ref, id := range t.references {
		s.references[ref] = id
	}

	for _, e := range t.entries {
		s.seq++
		stored := *e
		stored.Sequence = s.seq
		e.Sequence = s.seq

		idx := len(s.entries)
		s.entries = append(s.entries, &stored)
		s.byAccount[e.AccountID] = append(s.byAccount[e.AccountID], idx)
		s.byTxn[e.TransactionID] = append(s.byTxn[e.TransactionID], idx)
	}

	for _, ev := range t.events {
		stored := *ev
		s.outbox = append(s.outbox, &stored)
	}

	return nil
}

// validate runs under the store's write lock.
func (t *Tx) validate() error {
	s := t.store

	for id, base := range t.base {
		current, exists := s.accounts[id]
		switch {
		case base == nil && exists:
			return domain.Errorf(domain.Conflict, "account %s already exists", id)
		case base != nil && (!exists || !sameAccountState(base, current)):
			return domain.Errorf(domain.Conflict, "%w: %s", domain.ErrConcurrentUpdate, id)
		}
	}

	for _, txn := range t.transactions {
		if _, exists := s.transactions[txn.ID]; exists {
			return domain.Errorf(domain.Conflict, "transaction %s already exists", txn.ID)
		}
		if txn.ReversesTransactionID != nil && txn.Status == domain.TransactionStatusCompleted {
			if _, exists := s.reversals[*txn.ReversesTransactionID]; exists {
				return domain.Errorf(domain.Conflict, "%w: %s", domain.ErrAlreadyReversed, *txn.ReversesTransactionID)
			}
		}
	}

	for ref := range t.references {
		if _, exists := s.references[ref]; exists {
			return domain.Errorf(domain.Conflict, "%w: %s", domain.ErrReferenceTaken, ref)
		}
	}

	return nil
}

// Rollback discards the buffered writes. It is safe to call after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

func asTx(tx usecase.Tx) (*Tx, error) {
	mt, ok := tx.(*Tx)
	if !ok {
		return nil, errors.New("memory: foreign transaction")
	}
	if mt.done {
		return nil, errTxClosed
	}
	return mt, nil
}

// account returns the transaction's working copy of an account, reading it
// from committed state on first use.
func (t *Tx) account(id string) (*domain.Account, error) {
	if a, ok := t.accounts[id]; ok {
		return a, nil
	}

	t.store.mu.RLock()
	current, ok := t.store.accounts[id]
	t.store.mu.RUnlock()

	if !ok {
		return nil, domain.Errorf(domain.NotFound, "%w: %s", domain.ErrAccountNotFound, id)
	}

	t.base[id] = cloneAccount(current)
	t.accounts[id] = cloneAccount(current)

	return t.accounts[id], nil
}

func sameAccountState(a, b *domain.Account) bool {
	return a.Version == b.Version && a.Status == b.Status && a.Balance.Equal(b.Balance)
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.ReversesTransactionID != nil {
		id := *t.ReversesTransactionID
		c.ReversesTransactionID = &id
	}
	return &c
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	c := *e
	return &c
}
