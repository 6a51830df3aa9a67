package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TxManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	transfers   *TransferUseCase
	locker      Locker
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	lockTimeout time.Duration
}

// NewAccountUseCase creates a new AccountUseCase. Initial balances are posted
// through transfers so the ledger stays the source of truth.
func NewAccountUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	transfers *TransferUseCase,
	locker Locker,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AccountUseCase {
	lockTimeout := DefaultLockTimeout
	if transfers != nil {
		lockTimeout = transfers.lockTimeout
	}

	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		transfers:   transfers,
		locker:      locker,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
		lockTimeout: lockTimeout,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	CustomerID      string
	AccountType     string
	InitialBalance  decimal.Decimal
	ReferenceNumber string
}

// OpenAccount creates an ACTIVE account with a zero balance and, when asked,
// funds it with a deposit. If the deposit fails the account is still returned
// together with the error.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if err := domain.ValidateCustomerID(customerID); err != nil {
		return nil, err
	}

	if err := domain.ValidateAccountType(input.AccountType); err != nil {
		return nil, err
	}

	if input.InitialBalance.IsNegative() {
		return nil, domain.NewError(domain.InvalidRequest, domain.ErrInvalidAmount)
	}

	if input.InitialBalance.IsPositive() {
		if err := domain.ValidateAmount(input.InitialBalance); err != nil {
			return nil, err
		}
	}

	if err := domain.ValidateReference(input.ReferenceNumber); err != nil {
		return nil, err
	}

	if input.ReferenceNumber != "" && input.InitialBalance.IsPositive() {
		opened, err := uc.replayOpening(ctx, customerID, input)
		if opened != nil || err != nil {
			return opened, err
		}
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:          uc.idGen.Generate(),
		CustomerID:  customerID,
		AccountType: strings.ToUpper(input.AccountType),
		Balance:     decimal.Zero,
		Status:      domain.AccountStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("customer_id", account.CustomerID).
		Str("account_type", account.AccountType).
		Msg("account opened")

	if !input.InitialBalance.IsPositive() {
		return account, nil
	}

	if _, err := uc.transfers.Deposit(ctx, DepositInput{
		AccountID:       account.ID,
		Amount:          input.InitialBalance,
		ReferenceNumber: input.ReferenceNumber,
	}); err != nil {
		return account, fmt.Errorf("initial deposit for account %s: %w", account.ID, err)
	}

	return uc.accountRepo.GetByID(ctx, account.ID)
}

// replayOpening returns the account funded by an earlier opening deposit
// under the same reference. It returns nil, nil when the reference is unused.
func (uc *AccountUseCase) replayOpening(ctx context.Context, customerID string, input OpenAccountInput) (*domain.Account, error) {
	if uc.transfers == nil || uc.transfers.registry == nil {
		return nil, nil
	}

	prior, err := uc.transfers.registry.Resolve(ctx, input.ReferenceNumber)
	if err != nil {
		if errors.Is(err, domain.NotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}

	mismatch := domain.Errorf(domain.Conflict, "%w: %s", domain.ErrReferenceMismatch, input.ReferenceNumber)
	if prior.Type != domain.TransactionTypeDeposit || !prior.Amount.Equal(input.InitialBalance) {
		return nil, mismatch
	}

	account, err := uc.accountRepo.GetByID(ctx, prior.ToAccountID)
	if err != nil {
		return nil, classify(err)
	}

	if account.CustomerID != customerID || account.AccountType != strings.ToUpper(input.AccountType) {
		return nil, mismatch
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("reference_number", input.ReferenceNumber).
		Msg("account opening replayed")

	if err := prior.ReplayError(); err != nil {
		return account, fmt.Errorf("initial deposit for account %s: %w", account.ID, err)
	}

	return account, nil
}

func (uc *AccountUseCase) create(ctx context.Context, account *domain.Account) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := uc.accountRepo.CreateTx(ctx, tx, account); err != nil {
		return classify(err)
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountOpened, account, account.CreatedAt)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(err)
	}

	return nil
}

// EnsureFundingAccount creates the internal funding account if it does not exist yet.
func (uc *AccountUseCase) EnsureFundingAccount(ctx context.Context) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, domain.FundingAccountID)
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, domain.NotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	account = &domain.Account{
		ID:                   domain.FundingAccountID,
		CustomerID:           domain.SystemCustomerID,
		AccountType:          domain.AccountTypeSystem,
		Balance:              decimal.Zero,
		Status:               domain.AccountStatusActive,
		AllowNegativeBalance: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		// another instance may have won the race
		if existing, getErr := uc.accountRepo.GetByID(ctx, domain.FundingAccountID); getErr == nil {
			return existing, nil
		}
		return nil, classify(err)
	}

	uc.logger.Info().Str("account_id", account.ID).Msg("funding account created")

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ChangeStatus freezes, unfreezes or closes an account. It takes the same
// account lock as the transfer engine so a status change never interleaves
// with a transfer on that account.
func (uc *AccountUseCase) ChangeStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error) {
	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	unlock, err := uc.locker.Acquire(lockCtx, accountLockKey(id))
	if err != nil {
		if domain.KindOf(err) == domain.Timeout {
			return nil, err
		}
		return nil, domain.Errorf(domain.Timeout, "%w: %v", domain.ErrLockTimeout, err)
	}
	defer unlock()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, []string{id})
	if err != nil {
		return nil, classify(err)
	}

	if len(accounts) == 0 {
		return nil, domain.Errorf(domain.NotFound, "%w: %s", domain.ErrAccountNotFound, id)
	}

	account := accounts[0]
	if account.Status == status {
		return account, nil
	}

	if err := account.ValidateTransition(status); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.UpdateStatus(ctx, tx, id, status, now); err != nil {
		return nil, classify(err)
	}

	previous := account.Status
	account.Status = status
	account.UpdatedAt = now

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountStatusChanged, account, now)
	event.Payload["previous_status"] = string(previous)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify(err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues("status_" + strings.ToLower(string(status))).Inc()
	}

	uc.logger.Info().
		Str("account_id", id).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("account status changed")

	return account, nil
}
