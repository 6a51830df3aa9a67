package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/finledger/internal/domain"
)

// PostgreSQL error codes the adapter gives a meaning to.
const (
	pgErrUniqueViolation      = "23505"
	pgErrCheckViolation       = "23514"
	pgErrLockNotAvailable     = "55P03"
	pgErrQueryCanceled        = "57014"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// Constraint names from the migrations.
const (
	constraintReferencePK      = "transaction_references_pkey"
	constraintReferenceUnique  = "transactions_reference_number_key"
	constraintReversalUnique   = "transactions_reverses_completed_key"
	constraintNonNegativeFunds = "accounts_balance_non_negative"
)

// mapError converts driver errors into domain errors. Errors that already
// carry a kind pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		return domain.Errorf(domain.Timeout, "%w: %v", domain.ErrCommitTimeout, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			switch pgErr.ConstraintName {
			case constraintReferencePK, constraintReferenceUnique:
				return domain.Errorf(domain.Conflict, "%w: %s", domain.ErrReferenceTaken, pgErr.Detail)
			case constraintReversalUnique:
				return domain.Errorf(domain.Conflict, "%w: %s", domain.ErrAlreadyReversed, pgErr.Detail)
			}
			return domain.Errorf(domain.Conflict, "unique violation on %s: %w", pgErr.ConstraintName, err)
		case pgErrCheckViolation:
			if pgErr.ConstraintName == constraintNonNegativeFunds {
				return domain.NewError(domain.InsufficientFunds, domain.ErrInsufficientBalance)
			}
			return domain.Errorf(domain.InvalidRequest, "check violation on %s: %w", pgErr.ConstraintName, err)
		case pgErrLockNotAvailable, pgErrQueryCanceled:
			return domain.Errorf(domain.Timeout, "%w: %v", domain.ErrLockTimeout, err)
		}
	}

	return domain.NewError(domain.StorageFailure, err)
}
