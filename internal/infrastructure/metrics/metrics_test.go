package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.TransactionsCompleted == nil || m.HTTPRequests == nil || m.LockWait == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.TransactionsCompleted.WithLabelValues("TRANSFER").Inc()
	m.TransactionsFailed.WithLabelValues("INSUFFICIENT_FUNDS").Add(2)

	if got := testutil.ToFloat64(m.TransactionsCompleted.WithLabelValues("TRANSFER")); got != 1 {
		t.Fatalf("expected 1 completed transfer, got %v", got)
	}

	if got := testutil.ToFloat64(m.TransactionsFailed.WithLabelValues("INSUFFICIENT_FUNDS")); got != 2 {
		t.Fatalf("expected 2 failures, got %v", got)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	// Each registry gets its own collectors, so repeated construction must not panic.
	_ = New(prometheus.NewRegistry())
	_ = New(prometheus.NewRegistry())
}
