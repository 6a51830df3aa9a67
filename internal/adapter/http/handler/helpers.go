package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/logger"
)

// IdempotencyKeyHeader carries a client reference number for POST requests
// whose body has none.
const IdempotencyKeyHeader = "Idempotency-Key"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response for err. txn, when set, is the FAILED
// transaction the request was recorded as.
func writeError(w http.ResponseWriter, r *http.Request, err error, txn *domain.Transaction) {
	status := mapDomainError(err)
	kind := domain.KindOf(err)

	resp := dto.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   err.Error(),
		Kind:      string(kind),
		Retryable: kind.Retryable(),
	}
	if txn != nil {
		resp.TransactionID = txn.ID
		resp.ReferenceNumber = txn.ReferenceNumber
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context(), log.Logger)
		l.Error().Err(err).Str("kind", string(kind)).Msg("request failed")
	}

	writeJSON(w, status, resp)
}

// mapDomainError maps error kinds to HTTP status codes.
func mapDomainError(err error) int {
	switch domain.KindOf(err) {
	case domain.InvalidRequest:
		return http.StatusBadRequest
	case domain.InsufficientFunds:
		return http.StatusPaymentRequired
	case domain.NotFound:
		return http.StatusNotFound
	case domain.AccountUnavailable:
		if errors.Is(err, domain.ErrAccountNotFound) {
			return http.StatusNotFound
		}
		return http.StatusConflict
	case domain.Conflict:
		return http.StatusConflict
	case domain.Timeout:
		return http.StatusGatewayTimeout
	case domain.StorageFailure:
		return http.StatusServiceUnavailable
	default:
		// Internal and anything unknown
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes and validates a request body. An empty body decodes to
// the zero value.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.Errorf(domain.InvalidRequest, "invalid request body: %v", err)
	}

	return dto.Validate(dst)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

func parseBoolQuery(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// parseTimeQuery parses an RFC 3339 timestamp; a missing value yields nil.
func parseTimeQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, domain.Errorf(domain.InvalidRequest, "%s: %q is not an RFC 3339 timestamp", key, val)
	}

	return &t, nil
}

func parseInt64Query(r *http.Request, key string) (int64, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, domain.NewError(domain.InvalidRequest, fmt.Errorf("%s: %q is not an integer", key, val))
	}

	return n, nil
}
