package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// CheckConsistency returns the sum of all balances and the sum of all entries.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	totalBalance := decimal.Zero
	for _, a := range r.store.accounts {
		totalBalance = totalBalance.Add(a.Balance)
	}

	totalAmount := decimal.Zero
	for _, e := range r.store.entries {
		totalAmount = totalAmount.Add(e.Amount)
	}

	return totalBalance, totalAmount, nil
}

// BalanceChecks returns stored and ledger-derived balances for every account.
func (r *LedgerRepository) BalanceChecks(ctx context.Context) ([]usecase.BalanceCheck, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	checks := make([]usecase.BalanceCheck, 0, len(r.store.accounts))
	for id, a := range r.store.accounts {
		sum := decimal.Zero
		for _, i := range r.store.byAccount[id] {
			sum = sum.Add(r.store.entries[i].Amount)
		}

		checks = append(checks, usecase.BalanceCheck{
			AccountID:       id,
			RecordedBalance: a.Balance,
			LedgerBalance:   sum,
		})
	}

	sort.Slice(checks, func(i, j int) bool { return checks[i].AccountID < checks[j].AccountID })

	return checks, nil
}

// UnbalancedTransactions returns every transaction whose entries break double entry.
func (r *LedgerRepository) UnbalancedTransactions(ctx context.Context) ([]usecase.TransactionCheck, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var checks []usecase.TransactionCheck
	for id, txn := range r.store.transactions {
		check := usecase.TransactionCheck{TransactionID: id, Status: txn.Status, EntrySum: decimal.Zero}
		for _, i := range r.store.byTxn[id] {
			check.EntryCount++
			check.EntrySum = check.EntrySum.Add(r.store.entries[i].Amount)
		}

		if unbalanced(check) {
			checks = append(checks, check)
		}
	}

	// entries pointing at a transaction that was never stored
	for id, idx := range r.store.byTxn {
		if _, ok := r.store.transactions[id]; ok {
			continue
		}
		check := usecase.TransactionCheck{TransactionID: id, EntryCount: len(idx), EntrySum: decimal.Zero}
		for _, i := range idx {
			check.EntrySum = check.EntrySum.Add(r.store.entries[i].Amount)
		}
		checks = append(checks, check)
	}

	sort.Slice(checks, func(i, j int) bool { return checks[i].TransactionID < checks[j].TransactionID })

	return checks, nil
}

func unbalanced(c usecase.TransactionCheck) bool {
	switch c.Status {
	case domain.TransactionStatusCompleted:
		return c.EntryCount != 2 || !c.EntrySum.IsZero()
	default:
		return c.EntryCount != 0
	}
}

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create buffers an event in the transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Tx, event *domain.OutboxEvent) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}

	mt.events = append(mt.events, event)

	return nil
}

// GetUnpublished returns unpublished events in commit order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]*domain.OutboxEvent, 0)
	for _, ev := range r.store.outbox {
		if ev.Published {
			continue
		}

		c := *ev
		events = append(events, &c)
		if limit > 0 && len(events) == limit {
			break
		}
	}

	return events, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, ev := range r.store.outbox {
		if ev.ID == id {
			ev.Published = true
			ev.PublishedAt = &publishedAt
			return nil
		}
	}

	return domain.Errorf(domain.NotFound, "outbox event %s not found", id)
}
