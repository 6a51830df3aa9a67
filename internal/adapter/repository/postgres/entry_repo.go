package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/postgres/generated"
	"github.com/iho/finledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository. The entries table has
// no update or delete path.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// Append inserts the entries in order and records their sequence numbers.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Tx, entries []*domain.Entry) error {
	q, err := txQueries(tx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		seq, err := q.CreateEntry(ctx, generated.CreateEntryParams{
			ID:                     entry.ID,
			AccountID:              entry.AccountID,
			TransactionID:          entry.TransactionID,
			Amount:                 decimalToNumeric(entry.Amount),
			AccountPreviousBalance: decimalToNumeric(entry.AccountPreviousBalance),
			AccountCurrentBalance:  decimalToNumeric(entry.AccountCurrentBalance),
			AccountVersion:         entry.AccountVersion,
			CreatedAt:              timeToPgTimestamptz(entry.CreatedAt),
		})
		if err != nil {
			return mapError(err)
		}

		entry.Sequence = seq
	}

	return nil
}

// GetByTransaction retrieves the entries of one transaction.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	rows, err := r.queries.GetEntriesByTransaction(ctx, transactionID)
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToEntries(rows), nil
}

// ListByAccount retrieves entries of an account in ledger order.
func (r *EntryRepository) ListByAccount(ctx context.Context, filter usecase.EntryFilter) ([]*domain.Entry, error) {
	var since pgtype.Timestamptz
	if filter.Since != nil {
		since = timeToPgTimestamptz(*filter.Since)
	}

	rows, err := r.queries.ListEntriesByAccount(ctx, generated.ListEntriesByAccountParams{
		AccountID:     filter.AccountID,
		AfterSequence: filter.AfterSequence,
		Since:         since,
		Limit:         limitOrAll(filter.Limit),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToEntries(rows), nil
}

// SumByAccount returns the ledger-derived balance of an account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	total, err := r.queries.SumEntriesByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, mapError(err)
	}

	return numericToDecimal(total), nil
}

// BalanceAt returns the balance at a specific time.
func (r *EntryRepository) BalanceAt(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	balance, err := r.queries.GetAccountBalanceAtTime(ctx, generated.GetAccountBalanceAtTimeParams{
		AccountID: accountID,
		CreatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return decimal.Zero, mapError(err)
	}

	return numericToDecimal(balance), nil
}

func rowsToEntries(rows []generated.Entry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &domain.Entry{
			Sequence:               row.Sequence,
			ID:                     row.ID,
			AccountID:              row.AccountID,
			TransactionID:          row.TransactionID,
			Amount:                 numericToDecimal(row.Amount),
			AccountPreviousBalance: numericToDecimal(row.AccountPreviousBalance),
			AccountCurrentBalance:  numericToDecimal(row.AccountCurrentBalance),
			AccountVersion:         row.AccountVersion,
			CreatedAt:              row.CreatedAt.Time,
		})
	}

	return entries
}
