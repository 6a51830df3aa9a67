package postgres

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/postgres/generated"
	"github.com/iho/finledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return mapError(r.queries.CreateAccount(ctx, accountParams(account)))
}

// CreateTx creates a new account within a transaction.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	q, err := txQueries(tx)
	if err != nil {
		return err
	}

	return mapError(q.CreateAccount(ctx, accountParams(account)))
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.NotFound, "%w: %s", domain.ErrAccountNotFound, id)
		}

		return nil, mapError(err)
	}

	return rowToAccount(row), nil
}

// GetByIDsForUpdate retrieves multiple accounts with FOR UPDATE locks taken in id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	q, err := txQueries(tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, mapError(err)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// ApplyDelta adds delta to the stored balance and bumps the version.
func (r *AccountRepository) ApplyDelta(ctx context.Context, tx usecase.Tx, id string, delta decimal.Decimal, updatedAt time.Time) (*domain.Account, error) {
	q, err := txQueries(tx)
	if err != nil {
		return nil, err
	}

	row, err := q.ApplyAccountDelta(ctx, generated.ApplyAccountDeltaParams{
		ID:        id,
		Delta:     decimalToNumeric(delta),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.NotFound, "%w: %s", domain.ErrAccountNotFound, id)
		}

		return nil, mapError(err)
	}

	return rowToAccount(row), nil
}

// SetBalance overwrites the stored balance.
func (r *AccountRepository) SetBalance(ctx context.Context, tx usecase.Tx, id string, balance decimal.Decimal, updatedAt time.Time) error {
	q, err := txQueries(tx)
	if err != nil {
		return err
	}

	n, err := q.SetAccountBalance(ctx, generated.SetAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.Errorf(domain.NotFound, "%w: %s", domain.ErrAccountNotFound, id)
	}

	return nil
}

// UpdateStatus changes the account status.
func (r *AccountRepository) UpdateStatus(ctx context.Context, tx usecase.Tx, id string, status domain.AccountStatus, updatedAt time.Time) error {
	q, err := txQueries(tx)
	if err != nil {
		return err
	}

	n, err := q.UpdateAccountStatus(ctx, generated.UpdateAccountStatusParams{
		ID:        id,
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.Errorf(domain.NotFound, "%w: %s", domain.ErrAccountNotFound, id)
	}

	return nil
}

// List lists accounts ordered by creation time.
func (r *AccountRepository) List(ctx context.Context, filter usecase.AccountFilter) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		CustomerID:    filter.CustomerID,
		Status:        string(filter.Status),
		IncludeSystem: filter.IncludeSystem,
		Limit:         limitOrAll(filter.Limit),
		Offset:        int32(filter.Offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func accountParams(account *domain.Account) generated.CreateAccountParams {
	return generated.CreateAccountParams{
		ID:                   account.ID,
		CustomerID:           account.CustomerID,
		AccountType:          account.AccountType,
		Balance:              decimalToNumeric(account.Balance),
		Status:               string(account.Status),
		AllowNegativeBalance: account.AllowNegativeBalance,
		Version:              account.Version,
		CreatedAt:            timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:            timeToPgTimestamptz(account.UpdatedAt),
	}
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:                   row.ID,
		CustomerID:           row.CustomerID,
		AccountType:          row.AccountType,
		Balance:              numericToDecimal(row.Balance),
		Status:               domain.AccountStatus(row.Status),
		AllowNegativeBalance: row.AllowNegativeBalance,
		Version:              row.Version,
		CreatedAt:            row.CreatedAt.Time,
		UpdatedAt:            row.UpdatedAt.Time,
	}
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return timeToPgTimestamptz(*t)
}

func limitOrAll(limit int) int32 {
	if limit <= 0 || limit > math.MaxInt32 {
		return math.MaxInt32
	}

	return int32(limit)
}
