package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	tests := []struct {
		name        string
		repo        *fakeLedgerRepository
		want        bool
		expectedErr error
	}{
		{
			name: "happy path balanced ledger",
			repo: &fakeLedgerRepository{
				totalBalance: decimal.Zero,
				totalAmount:  decimal.Zero,
			},
			want: true,
		},
		{
			name: "repo error surfaces",
			repo: &fakeLedgerRepository{
				err: errors.New("db down"),
			},
			want:        false,
			expectedErr: errors.New("db down"),
		},
		{
			name: "non-zero balance",
			repo: &fakeLedgerRepository{
				totalBalance: decimal.NewFromInt(10),
				totalAmount:  decimal.Zero,
			},
			want:        false,
			expectedErr: ErrInconsistentLedger,
		},
		{
			name: "non-zero amount",
			repo: &fakeLedgerRepository{
				totalBalance: decimal.Zero,
				totalAmount:  decimal.NewFromInt(1),
			},
			want:        false,
			expectedErr: ErrInconsistentLedger,
		},
		{
			name: "both balance and amount non-zero",
			repo: &fakeLedgerRepository{
				totalBalance: decimal.NewFromInt(1),
				totalAmount:  decimal.NewFromInt(-1),
			},
			want:        false,
			expectedErr: ErrInconsistentLedger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewLedgerUseCase(tt.repo)
			got, err := uc.CheckConsistency(context.Background())

			if tt.expectedErr != nil {
				if err == nil || err.Error() != tt.expectedErr.Error() {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Fatalf("CheckConsistency() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLedgerUseCase_RepositoryInvoked(t *testing.T) {
	repo := &fakeLedgerRepository{}
	uc := NewLedgerUseCase(repo)

	if _, err := uc.CheckConsistency(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.calls != 1 {
		t.Fatalf("expected CheckConsistency to call repository once, got %d", repo.calls)
	}
}

type fakeLedgerRepository struct {
	totalBalance decimal.Decimal
	totalAmount  decimal.Decimal
	unbalanced   []TransactionCheck
	err          error
	calls        int
}

func (f *fakeLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	f.calls++
	return f.totalBalance, f.totalAmount, f.err
}

func (f *fakeLedgerRepository) BalanceChecks(ctx context.Context) ([]BalanceCheck, error) {
	return nil, f.err
}

func (f *fakeLedgerRepository) UnbalancedTransactions(ctx context.Context) ([]TransactionCheck, error) {
	return f.unbalanced, f.err
}

func TestLedgerUseCase_OffsettingTransactionsAreCaught(t *testing.T) {
	// +5 too much in one transaction and -5 in another still sum to zero globally
	repo := &fakeLedgerRepository{
		totalBalance: decimal.Zero,
		totalAmount:  decimal.Zero,
		unbalanced: []TransactionCheck{
			{TransactionID: "t1", Status: domain.TransactionStatusCompleted, EntryCount: 2, EntrySum: decimal.NewFromInt(5)},
			{TransactionID: "t2", Status: domain.TransactionStatusCompleted, EntryCount: 2, EntrySum: decimal.NewFromInt(-5)},
		},
	}

	got, err := NewLedgerUseCase(repo).CheckConsistency(context.Background())
	if got {
		t.Fatalf("expected inconsistent ledger")
	}
	if !errors.Is(err, ErrInconsistentLedger) {
		t.Fatalf("expected ErrInconsistentLedger, got %v", err)
	}
	for _, id := range []string{"t1", "t2"} {
		if !strings.Contains(err.Error(), id) {
			t.Fatalf("expected %s in %q", id, err.Error())
		}
	}
}

func TestDescribeChecksCapsOutput(t *testing.T) {
	checks := make([]TransactionCheck, 8)
	for i := range checks {
		checks[i] = TransactionCheck{TransactionID: fmt.Sprintf("t%d", i), Status: domain.TransactionStatusFailed, EntryCount: 1}
	}

	got := describeChecks(checks)
	if !strings.HasSuffix(got, "and 3 more") {
		t.Fatalf("unexpected description %q", got)
	}
	if strings.Contains(got, "t5") {
		t.Fatalf("expected at most %d transactions named, got %q", maxReportedTransactions, got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.Kind
	}{
		{"kind kept", domain.NewError(domain.InsufficientFunds, domain.ErrInsufficientBalance), domain.InsufficientFunds},
		{"deadline", context.DeadlineExceeded, domain.Timeout},
		{"wrapped cancel", fmt.Errorf("query: %w", context.Canceled), domain.Timeout},
		{"anything else", errors.New("connection reset"), domain.StorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.KindOf(classify(tt.err)); got != tt.kind {
				t.Fatalf("classify(%v) kind = %s, want %s", tt.err, got, tt.kind)
			}
		})
	}
}

func TestLockKeys(t *testing.T) {
	if accountLockKey("a") == referenceLockKey("a") || referenceLockKey("a") == reversalLockKey("a") {
		t.Fatal("lock key namespaces must not collide")
	}
}
