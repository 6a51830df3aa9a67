package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	// AmountScale is the number of minor-unit digits the ledger stores.
	AmountScale           = 2
	MaxTransferAmount     = "1000000000000" // 1 trillion
	MaxReferenceLength    = 64
	MaxCustomerIDLength   = 64
	ReferenceNumberPrefix = "TXN-"
)

var (
	referenceRegex  = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)
	customerIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	maxTransferAmount = decimal.RequireFromString(MaxTransferAmount)
)

var validAccountTypes = map[string]bool{
	AccountTypeSavings:  true,
	AccountTypeChecking: true,
}

// ValidateAmount validates a transfer amount: positive, representable with
// AmountScale decimal places, and below the per-transfer ceiling.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return NewError(InvalidRequest, ErrInvalidAmount)
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return Errorf(InvalidRequest, "%w: %s", ErrAmountPrecision, amount.String())
	}

	if amount.GreaterThan(maxTransferAmount) {
		return Errorf(InvalidRequest, "%w: maximum amount is %s", ErrInvalidAmount, MaxTransferAmount)
	}

	return nil
}

// ValidateReference validates a client-supplied reference number. Empty is allowed.
func ValidateReference(ref string) error {
	if ref == "" {
		return nil
	}

	if len(ref) > MaxReferenceLength || !referenceRegex.MatchString(ref) {
		return Errorf(InvalidRequest, "%w: %q", ErrInvalidReference, ref)
	}

	return nil
}

// ValidateCustomerID validates a customer identifier.
func ValidateCustomerID(customerID string) error {
	customerID = strings.TrimSpace(customerID)

	if customerID == "" || len(customerID) > MaxCustomerIDLength || !customerIDRegex.MatchString(customerID) {
		return Errorf(InvalidRequest, "invalid customer id %q", customerID)
	}

	if customerID == SystemCustomerID {
		return NewError(InvalidRequest, ErrSystemAccount)
	}

	return nil
}

// ValidateAccountType validates the account type of a customer account.
func ValidateAccountType(accountType string) error {
	if !validAccountTypes[strings.ToUpper(accountType)] {
		return Errorf(InvalidRequest, "invalid account type %q", accountType)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// FormatAmount renders an amount with the ledger's fixed scale.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(AmountScale)
}

// ParseAmount parses a decimal string without going through floating point.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, Errorf(InvalidRequest, "%w: %q is not a decimal", ErrInvalidAmount, s)
	}
	return d, nil
}

// NewReferenceNumber formats a server-assigned reference.
func NewReferenceNumber(token string) string {
	return fmt.Sprintf("%s%s", ReferenceNumberPrefix, strings.ToUpper(token))
}
