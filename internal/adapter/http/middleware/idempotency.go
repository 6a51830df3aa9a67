package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/domain"
)

// IdempotencyKeyHeader is the header clients use to make a POST retry-safe.
// Its value becomes the request's reference number, so the engine's reference
// registry answers replays; no response caching happens here.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyKey rejects mutating requests whose Idempotency-Key could not be
// used as a reference number.
func IdempotencyKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		if err := domain.ValidateReference(r.Header.Get(IdempotencyKeyHeader)); err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	kind := domain.KindOf(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   err.Error(),
		Kind:      string(kind),
		Retryable: kind.Retryable(),
	})
}
