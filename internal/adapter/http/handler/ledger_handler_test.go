package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

type ledgerServiceStub struct {
	consistent bool
	err        error
}

func (s ledgerServiceStub) CheckConsistency(ctx context.Context) (bool, error) {
	return s.consistent, s.err
}

type reconciliationServiceStub struct {
	reportFn func(ctx context.Context) (*usecase.ReconciliationReport, error)
	repairFn func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

func (s *reconciliationServiceStub) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.reportFn(ctx)
}

func (s *reconciliationServiceStub) RepairAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
	return s.repairFn(ctx, accountID)
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	tests := []struct {
		name       string
		stub       ledgerServiceStub
		wantStatus int
	}{
		{"balanced", ledgerServiceStub{consistent: true}, http.StatusOK},
		{"unbalanced", ledgerServiceStub{err: usecase.ErrInconsistentLedger}, http.StatusConflict},
		{"storage down", ledgerServiceStub{err: domain.NewError(domain.StorageFailure, errors.New("down"))}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLedgerHandler(tt.stub, &reconciliationServiceStub{})
			rec := httptest.NewRecorder()

			h.CheckConsistency(rec, httptest.NewRequest(http.MethodGet, "/ledger/consistency", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestLedgerHandler_Reconciliation(t *testing.T) {
	h := NewLedgerHandler(ledgerServiceStub{consistent: true}, &reconciliationServiceStub{
		reportFn: func(ctx context.Context) (*usecase.ReconciliationReport, error) {
			return &usecase.ReconciliationReport{
				TotalAccounts:      2,
				ReconciledAccounts: 1,
				Discrepancies: []*usecase.ReconciliationResult{{
					AccountID:         "acc-1",
					RecordedBalance:   decimal.RequireFromString("10"),
					CalculatedBalance: decimal.RequireFromString("7.5"),
					Difference:        decimal.RequireFromString("2.5"),
				}},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Reconciliation(rec, httptest.NewRequest(http.MethodGet, "/ledger/reconciliation", nil))

	var resp dto.ReconciliationReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalAccounts != 2 || len(resp.Discrepancies) != 1 || resp.Discrepancies[0].Difference != "2.50" {
		t.Fatalf("unexpected report %+v", resp)
	}
}

func TestLedgerHandler_Repair(t *testing.T) {
	h := NewLedgerHandler(ledgerServiceStub{}, &reconciliationServiceStub{
		repairFn: func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
			if accountID != "acc-1" {
				return nil, domain.NewError(domain.NotFound, domain.ErrAccountNotFound)
			}
			return &usecase.ReconciliationResult{AccountID: accountID, IsReconciled: true, Repaired: true}, nil
		},
	})

	for id, want := range map[string]int{"acc-1": http.StatusOK, "missing": http.StatusNotFound} {
		req := withURLParams(httptest.NewRequest(http.MethodPost, "/ledger/reconciliation/"+id+"/repair", nil), map[string]string{"id": id})
		rec := httptest.NewRecorder()

		h.Repair(rec, req)

		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", id, want, rec.Code)
		}
	}
}
