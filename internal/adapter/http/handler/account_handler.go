package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler for writes.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ChangeStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error)
}

// QueryService defines the read-only views handlers expose.
type QueryService interface {
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	History(ctx context.Context, input usecase.HistoryInput) ([]*domain.Transaction, error)
	Entries(ctx context.Context, filter usecase.EntryFilter) ([]*domain.Entry, error)
	BalanceAt(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	TransactionEntries(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	Resolve(ctx context.Context, reference string) (*domain.Transaction, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	queryUC   QueryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, queryUC QueryService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, queryUC: queryUC}
}

// Create opens an account, funding it when an initial balance is given.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}

	input := req.ToUseCaseInput()
	if input.ReferenceNumber == "" {
		input.ReferenceNumber = r.Header.Get(IdempotencyKeyHeader)
	}

	account, err := h.accountUC.OpenAccount(r.Context(), input)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Update changes an account's status.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}

	account, err := h.accountUC.ChangeStatus(r.Context(), chi.URLParam(r, "id"), req.TargetStatus())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists customer accounts, filtered by customerId and status.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("customerId"))
}

// ListByCustomer lists the accounts of one customer.
func (h *AccountHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "customerId"))
}

func (h *AccountHandler) list(w http.ResponseWriter, r *http.Request, customerID string) {
	accounts, err := h.queryUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		CustomerID: customerID,
		Status:     domain.AccountStatus(r.URL.Query().Get("status")),
		Limit:      parseIntQuery(r, "limit", 50),
		Offset:     parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    len(accounts),
	})
}

// Entries lists an account's ledger entries in posting order.
func (h *AccountHandler) Entries(w http.ResponseWriter, r *http.Request) {
	after, err := parseInt64Query(r, "afterSequence")
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	since, err := parseTimeQuery(r, "since")
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	entries, err := h.queryUC.Entries(r.Context(), usecase.EntryFilter{
		AccountID:     chi.URLParam(r, "id"),
		AfterSequence: after,
		Since:         since,
		Limit:         parseIntQuery(r, "limit", 100),
	})
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// BalanceAt returns an account's ledger balance at the "at" query time, now by default.
func (h *AccountHandler) BalanceAt(w http.ResponseWriter, r *http.Request) {
	at, err := parseTimeQuery(r, "at")
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	if at == nil {
		now := time.Now().UTC()
		at = &now
	}

	id := chi.URLParam(r, "id")
	balance, err := h.queryUC.BalanceAt(r.Context(), id, *at)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewBalanceResponse(id, balance, *at))
}
