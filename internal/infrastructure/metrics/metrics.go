package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsCompleted *prometheus.CounterVec
	TransactionsFailed    *prometheus.CounterVec
	TransactionReplays    prometheus.Counter
	TransferDuration      prometheus.Histogram
	TransferAmount        prometheus.Histogram
	LockWait              prometheus.Histogram

	// Account metrics
	AccountsOpened    prometheus.Counter
	AccountOperations *prometheus.CounterVec

	// Ledger metrics
	ReconciliationDiscrepancies prometheus.Gauge

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Transaction metrics
		TransactionsCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finledger_transactions_completed_total",
				Help: "Total number of completed transactions by type",
			},
			[]string{"type"},
		),
		TransactionsFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finledger_transactions_failed_total",
				Help: "Total number of failed transactions by error kind",
			},
			[]string{"kind"},
		),
		TransactionReplays: f.NewCounter(prometheus.CounterOpts{
			Name: "finledger_transaction_replays_total",
			Help: "Total number of requests answered from an already resolved reference",
		}),
		TransferDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "finledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "finledger_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		LockWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "finledger_lock_wait_seconds",
			Help:    "Time spent acquiring account and reference locks",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),

		// Account metrics
		AccountsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "finledger_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
		AccountOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finledger_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),

		ReconciliationDiscrepancies: f.NewGauge(prometheus.GaugeOpts{
			Name: "finledger_reconciliation_discrepancies",
			Help: "Accounts whose stored balance differs from the ledger at the last reconciliation",
		}),

		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "finledger_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "finledger_outbox_errors_total",
			Help: "Total outbox publish failures",
		}),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
