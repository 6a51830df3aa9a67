package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

type accountServiceStub struct {
	openFn   func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	getFn    func(ctx context.Context, id string) (*domain.Account, error)
	statusFn func(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error)
}

func (s *accountServiceStub) OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
	return s.openFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) ChangeStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error) {
	return s.statusFn(ctx, id, status)
}

// queryServiceStub answers every read with empty results unless a func is set.
type queryServiceStub struct {
	listFn       func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	historyFn    func(ctx context.Context, input usecase.HistoryInput) ([]*domain.Transaction, error)
	entriesFn    func(ctx context.Context, filter usecase.EntryFilter) ([]*domain.Entry, error)
	balanceAtFn  func(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
	getTxnFn     func(ctx context.Context, id string) (*domain.Transaction, error)
	txnEntriesFn func(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	resolveFn    func(ctx context.Context, reference string) (*domain.Transaction, error)
}

func (s *queryServiceStub) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, input)
}

func (s *queryServiceStub) History(ctx context.Context, input usecase.HistoryInput) ([]*domain.Transaction, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, input)
}

func (s *queryServiceStub) Entries(ctx context.Context, filter usecase.EntryFilter) ([]*domain.Entry, error) {
	if s.entriesFn == nil {
		return nil, nil
	}
	return s.entriesFn(ctx, filter)
}

func (s *queryServiceStub) BalanceAt(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	if s.balanceAtFn == nil {
		return decimal.Zero, nil
	}
	return s.balanceAtFn(ctx, accountID, at)
}

func (s *queryServiceStub) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if s.getTxnFn == nil {
		return nil, domain.NewError(domain.NotFound, domain.ErrTransactionNotFound)
	}
	return s.getTxnFn(ctx, id)
}

func (s *queryServiceStub) TransactionEntries(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	if s.txnEntriesFn == nil {
		return nil, nil
	}
	return s.txnEntriesFn(ctx, transactionID)
}

func (s *queryServiceStub) Resolve(ctx context.Context, reference string) (*domain.Transaction, error) {
	if s.resolveFn == nil {
		return nil, domain.NewError(domain.NotFound, domain.ErrReferenceNotFound)
	}
	return s.resolveFn(ctx, reference)
}

type transferServiceStub struct {
	transferFn func(ctx context.Context, input usecase.TransferInput) (*domain.Transaction, error)
	reverseFn  func(ctx context.Context, input usecase.ReverseInput) (*domain.Transaction, error)
}

func (s *transferServiceStub) Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transaction, error) {
	return s.transferFn(ctx, input)
}

func (s *transferServiceStub) Reverse(ctx context.Context, input usecase.ReverseInput) (*domain.Transaction, error) {
	return s.reverseFn(ctx, input)
}
