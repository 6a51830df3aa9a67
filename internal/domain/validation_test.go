package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount string
		want   error
	}{
		{name: "whole", amount: "100"},
		{name: "cents", amount: "100.25"},
		{name: "trailing zeros", amount: "1.500"},
		{name: "smallest unit", amount: "0.01"},
		{name: "zero", amount: "0", want: ErrInvalidAmount},
		{name: "negative", amount: "-5.00", want: ErrInvalidAmount},
		{name: "sub-cent", amount: "1.005", want: ErrAmountPrecision},
		{name: "above ceiling", amount: "1000000000000.01", want: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected valid amount, got %v", err)
				}
				return
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if KindOf(err) != InvalidRequest {
				t.Fatalf("expected InvalidRequest kind, got %s", KindOf(err))
			}
		})
	}
}

func TestValidateReference(t *testing.T) {
	t.Parallel()

	if err := ValidateReference(""); err != nil {
		t.Fatalf("empty reference should be allowed, got %v", err)
	}

	if err := ValidateReference("TXN-3F2A9C1E"); err != nil {
		t.Fatalf("expected valid reference, got %v", err)
	}

	if err := ValidateReference("has space"); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}

	if err := ValidateReference(strings.Repeat("r", MaxReferenceLength+1)); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for long reference, got %v", err)
	}
}

func TestValidateCustomerID(t *testing.T) {
	t.Parallel()

	if err := ValidateCustomerID("1001"); err != nil {
		t.Fatalf("expected valid customer id, got %v", err)
	}

	for _, bad := range []string{"", "  ", "a/b", SystemCustomerID} {
		if err := ValidateCustomerID(bad); !errors.Is(err, InvalidRequest) {
			t.Fatalf("%q: expected InvalidRequest, got %v", bad, err)
		}
	}
}

func TestValidateAccountType(t *testing.T) {
	t.Parallel()

	if err := ValidateAccountType("savings"); err != nil {
		t.Fatalf("expected case-insensitive match, got %v", err)
	}

	if err := ValidateAccountType(AccountTypeSystem); !errors.Is(err, InvalidRequest) {
		t.Fatalf("system type must not be opened by customers, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset := ValidatePagination(0, -5)
	if limit != 50 || offset != 0 {
		t.Fatalf("expected defaults, got limit=%d offset=%d", limit, offset)
	}

	limit, _ = ValidatePagination(5000, 10)
	if limit != 1000 {
		t.Fatalf("expected limit capped at 1000, got %d", limit)
	}
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	d, err := ParseAmount(" 0.10 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatAmount(d) != "0.10" {
		t.Fatalf("expected 0.10, got %s", FormatAmount(d))
	}

	if _, err := ParseAmount("ten"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestNewReferenceNumber(t *testing.T) {
	t.Parallel()

	if got := NewReferenceNumber("abc-123"); got != "TXN-ABC-123" {
		t.Fatalf("unexpected reference %q", got)
	}
}
