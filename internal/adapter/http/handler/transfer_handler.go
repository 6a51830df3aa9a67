package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// TransferService defines the engine operations TransferHandler needs.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transaction, error)
	Reverse(ctx context.Context, input usecase.ReverseInput) (*domain.Transaction, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
	queryUC    QueryService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService, queryUC QueryService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC, queryUC: queryUC}
}

// Create executes a transfer. A replayed reference answers with the original
// outcome, so retries with the same Idempotency-Key are safe.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}

	txn, err := h.transferUC.Transfer(r.Context(), req.ToUseCaseInput(r.Header.Get(IdempotencyKeyHeader)))
	if err != nil {
		writeError(w, r, err, txn)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Reverse posts the compensating transaction for a completed transfer.
func (h *TransferHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req dto.ReverseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}

	input := req.ToUseCaseInput(chi.URLParam(r, "id"), r.Header.Get(IdempotencyKeyHeader))

	txn, err := h.transferUC.Reverse(r.Context(), input)
	if err != nil {
		writeError(w, r, err, txn)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Get retrieves a transaction by ID.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	txn, err := h.queryUC.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// GetByReference resolves a reference number to its transaction.
func (h *TransferHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	txn, err := h.queryUC.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Entries lists the ledger entries a transaction posted.
func (h *TransferHandler) Entries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.queryUC.TransactionEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// ListByAccount returns an account's transaction history, newest first.
func (h *TransferHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	txns, err := h.queryUC.History(r.Context(), usecase.HistoryInput{
		AccountID:     chi.URLParam(r, "id"),
		IncludeFailed: parseBoolQuery(r, "includeFailed"),
		Limit:         parseIntQuery(r, "limit", usecase.DefaultHistoryLimit),
		Offset:        parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}
