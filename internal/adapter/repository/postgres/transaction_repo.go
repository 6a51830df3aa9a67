package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/postgres/generated"
	"github.com/iho/finledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create inserts a terminal transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	if !txn.Status.IsTerminal() {
		return domain.Errorf(domain.InvalidRequest, "transaction %s must be terminal to be stored, got %s", txn.ID, txn.Status)
	}

	q, err := txQueries(tx)
	if err != nil {
		return err
	}

	var reverses pgtype.Text
	if txn.ReversesTransactionID != nil {
		reverses = pgtype.Text{String: *txn.ReversesTransactionID, Valid: true}
	}

	err = q.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:                    txn.ID,
		ReferenceNumber:       txn.ReferenceNumber,
		FromAccountID:         txn.FromAccountID,
		ToAccountID:           txn.ToAccountID,
		Amount:                decimalToNumeric(txn.Amount),
		Type:                  string(txn.Type),
		Status:                string(txn.Status),
		FailureKind:           string(txn.FailureKind),
		FailureReason:         txn.FailureReason,
		ReversesTransactionID: reverses,
		CreatedAt:             timeToPgTimestamptz(txn.CreatedAt),
		CompletedAt:           optionalTimestamptz(txn.CompletedAt),
	})

	return mapError(err)
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.NotFound, "%w: %s", domain.ErrTransactionNotFound, id)
		}

		return nil, mapError(err)
	}

	return rowToTransaction(row), nil
}

// GetReversalOf returns the completed reversal of a transaction.
func (r *TransactionRepository) GetReversalOf(ctx context.Context, originalID string) (*domain.Transaction, error) {
	row, err := r.queries.GetReversalOf(ctx, pgtype.Text{String: originalID, Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.NotFound, "%w: no reversal of %s", domain.ErrTransactionNotFound, originalID)
		}

		return nil, mapError(err)
	}

	return rowToTransaction(row), nil
}

// ListByAccount lists transactions that posted entries to the account, newest
// first, plus FAILED ones when asked.
func (r *TransactionRepository) ListByAccount(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, generated.ListTransactionsByAccountParams{
		AccountID:     filter.AccountID,
		IncludeFailed: filter.IncludeFailed,
		Limit:         limitOrAll(filter.Limit),
		Offset:        int32(filter.Offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	txns := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, rowToTransaction(row))
	}

	return txns, nil
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	txn := &domain.Transaction{
		ID:              row.ID,
		ReferenceNumber: row.ReferenceNumber,
		FromAccountID:   row.FromAccountID,
		ToAccountID:     row.ToAccountID,
		Amount:          numericToDecimal(row.Amount),
		Type:            domain.TransactionType(row.Type),
		Status:          domain.TransactionStatus(row.Status),
		FailureKind:     domain.Kind(row.FailureKind),
		FailureReason:   row.FailureReason,
		CreatedAt:       row.CreatedAt.Time,
	}

	if row.ReversesTransactionID.Valid {
		id := row.ReversesTransactionID.String
		txn.ReversesTransactionID = &id
	}

	if row.CompletedAt.Valid {
		at := row.CompletedAt.Time
		txn.CompletedAt = &at
	}

	return txn
}

// ReferenceRepository implements usecase.ReferenceRepository on a table whose
// primary key is the reference number.
type ReferenceRepository struct {
	queries *generated.Queries
}

// NewReferenceRepository creates a new ReferenceRepository.
func NewReferenceRepository(db generated.DBTX) *ReferenceRepository {
	return &ReferenceRepository{queries: generated.New(db)}
}

// Register inserts the reference; a duplicate maps to domain.ErrReferenceTaken.
func (r *ReferenceRepository) Register(ctx context.Context, tx usecase.Tx, reference, transactionID string, at time.Time) error {
	q, err := txQueries(tx)
	if err != nil {
		return err
	}

	return mapError(q.RegisterReference(ctx, generated.RegisterReferenceParams{
		ReferenceNumber: reference,
		TransactionID:   transactionID,
		CreatedAt:       timeToPgTimestamptz(at),
	}))
}

// Lookup returns the transaction ID a reference resolved to.
func (r *ReferenceRepository) Lookup(ctx context.Context, reference string) (string, error) {
	id, err := r.queries.LookupReference(ctx, reference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.Errorf(domain.NotFound, "%w: %s", domain.ErrReferenceNotFound, reference)
		}

		return "", mapError(err)
	}

	return id, nil
}
