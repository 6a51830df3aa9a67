package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// DefaultReferenceTTL is how long a resolved reference stays cached.
const DefaultReferenceTTL = 24 * time.Hour

// ReferenceCache implements usecase.TransactionCache using Redis.
// Only terminal transactions are cached; they never change afterwards.
type ReferenceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewReferenceCache creates a new ReferenceCache.
func NewReferenceCache(client *redis.Client, ttl time.Duration) *ReferenceCache {
	if ttl <= 0 {
		ttl = DefaultReferenceTTL
	}

	return &ReferenceCache{
		client: client,
		prefix: "finledger:reference:",
		ttl:    ttl,
	}
}

type cachedTransaction struct {
	CreatedAt             time.Time       `json:"created_at"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty"`
	ReversesTransactionID *string         `json:"reverses_transaction_id,omitempty"`
	ID                    string          `json:"id"`
	ReferenceNumber       string          `json:"reference_number"`
	FromAccountID         string          `json:"from_account_id"`
	ToAccountID           string          `json:"to_account_id"`
	Type                  string          `json:"type"`
	Status                string          `json:"status"`
	FailureKind           string          `json:"failure_kind,omitempty"`
	FailureReason         string          `json:"failure_reason,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
}

// Get returns the cached transaction for a reference, or (nil, nil) on a miss.
func (c *ReferenceCache) Get(ctx context.Context, reference string) (*domain.Transaction, error) {
	raw, err := c.client.Get(ctx, c.prefix+reference).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ct cachedTransaction
	if err := json.Unmarshal(raw, &ct); err != nil {
		return nil, fmt.Errorf("decode cached reference %s: %w", reference, err)
	}

	return &domain.Transaction{
		CreatedAt:             ct.CreatedAt,
		CompletedAt:           ct.CompletedAt,
		ReversesTransactionID: ct.ReversesTransactionID,
		ID:                    ct.ID,
		ReferenceNumber:       ct.ReferenceNumber,
		FromAccountID:         ct.FromAccountID,
		ToAccountID:           ct.ToAccountID,
		Type:                  domain.TransactionType(ct.Type),
		Status:                domain.TransactionStatus(ct.Status),
		FailureKind:           domain.Kind(ct.FailureKind),
		FailureReason:         ct.FailureReason,
		Amount:                ct.Amount,
	}, nil
}

// Set caches a terminal transaction under its reference.
func (c *ReferenceCache) Set(ctx context.Context, txn *domain.Transaction) error {
	if !txn.Status.IsTerminal() {
		return fmt.Errorf("refusing to cache %s transaction %s", txn.Status, txn.ID)
	}

	raw, err := json.Marshal(cachedTransaction{
		CreatedAt:             txn.CreatedAt,
		CompletedAt:           txn.CompletedAt,
		ReversesTransactionID: txn.ReversesTransactionID,
		ID:                    txn.ID,
		ReferenceNumber:       txn.ReferenceNumber,
		FromAccountID:         txn.FromAccountID,
		ToAccountID:           txn.ToAccountID,
		Type:                  string(txn.Type),
		Status:                string(txn.Status),
		FailureKind:           string(txn.FailureKind),
		FailureReason:         txn.FailureReason,
		Amount:                txn.Amount,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+txn.ReferenceNumber, raw, c.ttl).Err()
}

// Delete evicts a reference.
func (c *ReferenceCache) Delete(ctx context.Context, reference string) error {
	return c.client.Del(ctx, c.prefix+reference).Err()
}
