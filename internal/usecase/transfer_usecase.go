package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/metrics"
)

// TransferUseCase is the transfer engine: the only writer of entries and balances.
type TransferUseCase struct {
	txManager   TxManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	registry    *ReferenceRegistry
	locker      Locker
	idGen       IDGenerator
	refGen      IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	lockTimeout time.Duration
	now         func() time.Time
}

// TransferOption configures a TransferUseCase.
type TransferOption func(*TransferUseCase)

// WithMetrics records engine metrics.
func WithMetrics(m *metrics.Metrics) TransferOption {
	return func(uc *TransferUseCase) { uc.metrics = m }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) TransferOption {
	return func(uc *TransferUseCase) { uc.logger = l }
}

// WithLockTimeout overrides DefaultLockTimeout.
func WithLockTimeout(d time.Duration) TransferOption {
	return func(uc *TransferUseCase) {
		if d > 0 {
			uc.lockTimeout = d
		}
	}
}

// WithReferenceGenerator sets the generator for server-assigned reference numbers.
func WithReferenceGenerator(g IDGenerator) TransferOption {
	return func(uc *TransferUseCase) { uc.refGen = g }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TransferOption {
	return func(uc *TransferUseCase) { uc.now = now }
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	registry *ReferenceRegistry,
	locker Locker,
	idGen IDGenerator,
	opts ...TransferOption,
) *TransferUseCase {
	uc := &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		registry:    registry,
		locker:      locker,
		idGen:       idGen,
		refGen:      idGen,
		logger:      zerolog.Nop(),
		lockTimeout: DefaultLockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// TransferInput represents input for moving money between two customer accounts.
type TransferInput struct {
	FromAccountID   string
	ToAccountID     string
	Amount          decimal.Decimal
	ReferenceNumber string
}

// DepositInput represents input for funding an account from outside the ledger.
type DepositInput struct {
	AccountID       string
	Amount          decimal.Decimal
	ReferenceNumber string
}

// ReverseInput represents input for compensating a completed transaction.
type ReverseInput struct {
	TransactionID   string
	ReferenceNumber string
}

type movement struct {
	kind        domain.TransactionType
	from        string
	to          string
	amount      decimal.Decimal
	reference   string
	reverses    *string
	allowSystem bool
}

// Transfer moves amount from one customer account to another.
//
// Once the locks are held every outcome is terminal: the returned transaction is
// COMPLETED, or FAILED alongside the error that failed it. Errors raised before
// the locks (validation, lock timeout) return a nil transaction and record nothing.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	return uc.execute(ctx, movement{
		kind:      domain.TransactionTypeTransfer,
		from:      input.FromAccountID,
		to:        input.ToAccountID,
		amount:    input.Amount,
		reference: input.ReferenceNumber,
	})
}

// Deposit credits an account from the funding account.
func (uc *TransferUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.Transaction, error) {
	if input.AccountID == domain.FundingAccountID {
		return nil, domain.NewError(domain.InvalidRequest, domain.ErrSystemAccount)
	}

	return uc.execute(ctx, movement{
		kind:        domain.TransactionTypeDeposit,
		from:        domain.FundingAccountID,
		to:          input.AccountID,
		amount:      input.Amount,
		reference:   input.ReferenceNumber,
		allowSystem: true,
	})
}

// Reverse posts a compensating transaction for a completed one. A transaction
// can be reversed once; reversals themselves cannot be reversed.
func (uc *TransferUseCase) Reverse(ctx context.Context, input ReverseInput) (*domain.Transaction, error) {
	original, err := uc.txnRepo.GetByID(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	if original.Status != domain.TransactionStatusCompleted || original.Type == domain.TransactionTypeReversal {
		return nil, domain.Errorf(domain.InvalidRequest, "%w: %s is a %s %s",
			domain.ErrNotReversible, original.ID, original.Status, original.Type)
	}

	return uc.execute(ctx, movement{
		kind:        domain.TransactionTypeReversal,
		from:        original.ToAccountID,
		to:          original.FromAccountID,
		amount:      original.Amount,
		reference:   input.ReferenceNumber,
		reverses:    &original.ID,
		allowSystem: true,
	})
}

func (uc *TransferUseCase) execute(ctx context.Context, req movement) (*domain.Transaction, error) {
	start := time.Now()

	if req.from == req.to {
		return nil, domain.NewError(domain.InvalidRequest, domain.ErrSameAccount)
	}

	if err := domain.ValidateAmount(req.amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateReference(req.reference); err != nil {
		return nil, err
	}

	if req.reference != "" {
		prior, err := uc.replay(ctx, req)
		if prior != nil || err != nil {
			return prior, err
		}
	} else {
		req.reference = domain.NewReferenceNumber(uc.refGen.Generate())
	}

	if err := uc.preflight(ctx, req); err != nil {
		return nil, err
	}

	unlock, err := uc.acquire(ctx, req)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// A concurrent request with the same reference may have finished while we waited.
	prior, err := uc.replay(ctx, req)
	if prior != nil || err != nil {
		return prior, err
	}

	if req.reverses != nil {
		if err := uc.ensureNotReversed(ctx, *req.reverses); err != nil {
			return nil, err
		}
	}

	txn := &domain.Transaction{
		ID:                    uc.idGen.Generate(),
		ReferenceNumber:       req.reference,
		FromAccountID:         req.from,
		ToAccountID:           req.to,
		Type:                  req.kind,
		Status:                domain.TransactionStatusPending,
		Amount:                req.amount,
		ReversesTransactionID: req.reverses,
		CreatedAt:             uc.now(),
	}

	completed, err := uc.commit(ctx, txn, req)
	if err == nil {
		uc.registry.Remember(ctx, completed)
		uc.observeCompleted(completed, start)

		uc.logger.Info().
			Str("transaction_id", completed.ID).
			Str("reference", completed.ReferenceNumber).
			Str("type", string(completed.Type)).
			Str("amount", domain.FormatAmount(completed.Amount)).
			Msg("transaction completed")

		return completed, nil
	}

	if errors.Is(err, domain.ErrReferenceTaken) {
		// Another process registered the reference first; answer with its result.
		if prior, rerr := uc.replay(ctx, req); prior != nil || rerr != nil {
			return prior, rerr
		}
	}

	failed := uc.recordFailure(ctx, txn, err)
	uc.observeFailed(err)

	return failed, err
}

// replay returns the terminal result of an already resolved reference,
// or (nil, nil) when the reference is still free.
func (uc *TransferUseCase) replay(ctx context.Context, req movement) (*domain.Transaction, error) {
	prior, err := uc.registry.Resolve(ctx, req.reference)
	if err != nil {
		if errors.Is(err, domain.NotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}

	if prior.Type != req.kind || !prior.Matches(req.from, req.to, req.amount) {
		return nil, domain.Errorf(domain.Conflict, "%w: %s", domain.ErrReferenceMismatch, req.reference)
	}

	if uc.metrics != nil {
		uc.metrics.TransactionReplays.Inc()
	}

	return prior, prior.ReplayError()
}

// preflight checks both accounts without locking so obviously invalid
// requests never queue behind busy accounts.
func (uc *TransferUseCase) preflight(ctx context.Context, req movement) error {
	for _, id := range []string{req.from, req.to} {
		account, err := uc.accountRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.NotFound) {
				return domain.Errorf(domain.AccountUnavailable, "%w: %s", domain.ErrAccountNotFound, id)
			}
			return classify(err)
		}

		if err := checkAccount(account, req); err != nil {
			return err
		}
	}

	return nil
}

func checkAccount(account *domain.Account, req movement) error {
	if account.IsSystem() && !req.allowSystem {
		return domain.Errorf(domain.AccountUnavailable, "%w: %s", domain.ErrSystemAccount, account.ID)
	}

	return account.CanTransact()
}

func (uc *TransferUseCase) acquire(ctx context.Context, req movement) (func(), error) {
	keys := []string{
		accountLockKey(req.from),
		accountLockKey(req.to),
		referenceLockKey(req.reference),
	}
	if req.reverses != nil {
		keys = append(keys, reversalLockKey(*req.reverses))
	}

	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	waitStart := time.Now()
	unlock, err := uc.locker.Acquire(lockCtx, keys...)
	if uc.metrics != nil {
		uc.metrics.LockWait.Observe(time.Since(waitStart).Seconds())
	}

	if err != nil {
		uc.observeFailed(err)
		if domain.KindOf(err) == domain.Timeout {
			return nil, err
		}
		return nil, domain.Errorf(domain.Timeout, "%w: %v", domain.ErrLockTimeout, err)
	}

	return unlock, nil
}

func (uc *TransferUseCase) ensureNotReversed(ctx context.Context, originalID string) error {
	reversal, err := uc.txnRepo.GetReversalOf(ctx, originalID)
	if err != nil {
		if errors.Is(err, domain.NotFound) {
			return nil
		}
		return classify(err)
	}

	return domain.Errorf(domain.Conflict, "%w: %s by %s", domain.ErrAlreadyReversed, originalID, reversal.ID)
}

// commit runs the atomic unit: lock rows, re-check, write everything, commit.
func (uc *TransferUseCase) commit(ctx context.Context, pending *domain.Transaction, req movement) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Errorf(domain.Timeout, "%w: %v", domain.ErrCommitTimeout, err)
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	ids := []string{req.from, req.to}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, classify(err)
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	from, to := byID[req.from], byID[req.to]
	for id, account := range map[string]*domain.Account{req.from: from, req.to: to} {
		if account == nil {
			return nil, domain.Errorf(domain.AccountUnavailable, "%w: %s", domain.ErrAccountNotFound, id)
		}
		if err := checkAccount(account, req); err != nil {
			return nil, err
		}
	}

	if err := from.ValidateDebit(req.amount); err != nil {
		return nil, err
	}

	now := uc.now()
	done := *pending
	if err := done.Complete(now); err != nil {
		return nil, err
	}

	if err := uc.txnRepo.Create(ctx, tx, &done); err != nil {
		return nil, classify(err)
	}

	if err := uc.registry.Register(ctx, tx, done.ReferenceNumber, done.ID, now); err != nil {
		return nil, classify(err)
	}

	entries := []*domain.Entry{
		{
			ID:                     uc.idGen.Generate(),
			AccountID:              from.ID,
			TransactionID:          done.ID,
			Amount:                 req.amount.Neg(),
			AccountPreviousBalance: from.Balance,
			AccountCurrentBalance:  from.ApplyDebit(req.amount),
			AccountVersion:         from.Version + 1,
			CreatedAt:              now,
		},
		{
			ID:                     uc.idGen.Generate(),
			AccountID:              to.ID,
			TransactionID:          done.ID,
			Amount:                 req.amount,
			AccountPreviousBalance: to.Balance,
			AccountCurrentBalance:  to.ApplyCredit(req.amount),
			AccountVersion:         to.Version + 1,
			CreatedAt:              now,
		},
	}

	if err := domain.ValidateEntryPair(entries); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Append(ctx, tx, entries); err != nil {
		return nil, classify(err)
	}

	for _, e := range entries {
		if _, err := uc.accountRepo.ApplyDelta(ctx, tx, e.AccountID, e.Amount, now); err != nil {
			return nil, classify(err)
		}
	}

	if err := uc.outboxRepo.Create(ctx, tx, domain.NewTransactionEvent(uc.idGen.Generate(), &done, now)); err != nil {
		return nil, classify(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.Errorf(domain.Timeout, "%w: %v", domain.ErrCommitTimeout, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify(err)
	}

	return &done, nil
}

// recordFailure persists the transaction as FAILED in a fresh storage
// transaction that outlives the caller's deadline. It returns nil when the
// failure could not be recorded; the reference then stays free.
func (uc *TransferUseCase) recordFailure(ctx context.Context, pending *domain.Transaction, cause error) *domain.Transaction {
	failed := *pending
	now := uc.now()
	if err := failed.Fail(cause, now); err != nil {
		return nil
	}

	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FailureRecordTimeout)
	defer cancel()

	err := func() error {
		tx, err := uc.txManager.Begin(recCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(recCtx) }()

		if err := uc.txnRepo.Create(recCtx, tx, &failed); err != nil {
			return err
		}

		if err := uc.registry.Register(recCtx, tx, failed.ReferenceNumber, failed.ID, now); err != nil {
			return err
		}

		if err := uc.outboxRepo.Create(recCtx, tx, domain.NewTransactionEvent(uc.idGen.Generate(), &failed, now)); err != nil {
			return err
		}

		return tx.Commit(recCtx)
	}()
	if err != nil {
		uc.logger.Error().
			Err(err).
			AnErr("cause", cause).
			Str("reference", failed.ReferenceNumber).
			Msg("failed to record failed transaction")
		return nil
	}

	uc.registry.Remember(recCtx, &failed)

	uc.logger.Warn().
		Str("transaction_id", failed.ID).
		Str("reference", failed.ReferenceNumber).
		Str("kind", string(failed.FailureKind)).
		Str("reason", failed.FailureReason).
		Msg("transaction failed")

	return &failed
}

func (uc *TransferUseCase) observeCompleted(txn *domain.Transaction, start time.Time) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.TransactionsCompleted.WithLabelValues(string(txn.Type)).Inc()
	uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
	uc.metrics.TransferAmount.Observe(txn.Amount.InexactFloat64())
}

func (uc *TransferUseCase) observeFailed(err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.TransactionsFailed.WithLabelValues(string(domain.KindOf(err))).Inc()
}

// classify gives infrastructure errors a kind so callers can decide on retries.
func classify(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.Errorf(domain.Timeout, "%w: %v", domain.ErrCommitTimeout, err)
	}

	return domain.NewError(domain.StorageFailure, err)
}
