package main

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/finledger/internal/adapter/http"
	"github.com/iho/finledger/internal/adapter/http/handler"
	"github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/adapter/lock"
	"github.com/iho/finledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/finledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/finledger/internal/adapter/repository/redis"
	"github.com/iho/finledger/internal/infrastructure/config"
	"github.com/iho/finledger/internal/infrastructure/eventpublisher"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/infrastructure/postgres"
	"github.com/iho/finledger/internal/infrastructure/redis"
	"github.com/iho/finledger/internal/usecase"
)

// repositories is one storage backend's set of adapters.
type repositories struct {
	txManager usecase.TxManager
	accounts  usecase.AccountRepository
	txns      usecase.TransactionRepository
	entries   usecase.EntryRepository
	refs      usecase.ReferenceRepository
	outbox    usecase.OutboxRepository
	ledger    usecase.LedgerRepository
	retrier   usecase.Retrier
}

func memoryRepositories() repositories {
	store := memory.NewStore()
	return repositories{
		txManager: memory.NewTxManager(store),
		accounts:  memory.NewAccountRepository(store),
		txns:      memory.NewTransactionRepository(store),
		entries:   memory.NewEntryRepository(store),
		refs:      memory.NewReferenceRepository(store),
		outbox:    memory.NewOutboxRepository(store),
		ledger:    memory.NewLedgerRepository(store),
	}
}

func postgresRepositories(pool *pgxpool.Pool, l zerolog.Logger) repositories {
	return repositories{
		txManager: postgresRepo.NewTxManager(pool),
		accounts:  postgresRepo.NewAccountRepository(pool),
		txns:      postgresRepo.NewTransactionRepository(pool),
		entries:   postgresRepo.NewEntryRepository(pool),
		refs:      postgresRepo.NewReferenceRepository(pool),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		ledger:    postgresRepo.NewLedgerRepository(pool),
		retrier:   postgresRepo.NewRetrier(l),
	}
}

// app holds the wired service.
type app struct {
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	transfers      *usecase.TransferUseCase
	accounts       *usecase.AccountUseCase
	queries        *usecase.QueryUseCase
	ledger         *usecase.LedgerUseCase
	reconciliation *usecase.ReconciliationUseCase

	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	corsOrigins []string
	checks      map[string]handler.Check
	closers     []func()
}

// newApp connects the configured backends and wires the use cases. The
// funding account exists once it returns.
func newApp(ctx context.Context, cfg *config.Config, l zerolog.Logger) (_ *app, err error) {
	a := &app{
		logger:   l,
		registry: prometheus.NewRegistry(),
		checks:   map[string]handler.Check{},
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	var repos repositories
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, l); err != nil {
			return nil, err
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:      cfg.DatabaseURL,
			MaxConns:         cfg.DatabaseMaxConns,
			MinConns:         cfg.DatabaseMinConns,
			StatementTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		a.checks["postgres"] = pool.Ping
		l.Info().Msg("connected to postgres")

		repos = postgresRepositories(pool, l)
	default:
		l.Warn().Msg("using in-memory storage; data is lost on restart")
		repos = memoryRepositories()
	}

	var (
		cache  usecase.TransactionCache
		events eventpublisher.Publisher = eventpublisher.NewLogPublisher(l)
		locker usecase.Locker           = lock.NewLocal()
	)

	if cfg.RedisEnabled {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		a.checks["redis"] = redis.Ping(redisClient)
		l.Info().Msg("connected to redis")

		cache = redisRepo.NewReferenceCache(redisClient, cfg.ReferenceCacheTTL)
		events = redisRepo.NewEventPublisher(redisClient, cfg.OutboxChannel)

		if cfg.LockBackend == config.LockRedis {
			locker = lock.NewDistributed(redisClient, cfg.LockExpiry, l)
		}
	}

	ids := postgresRepo.NewULIDGenerator()
	refRegistry := usecase.NewReferenceRegistry(repos.refs, repos.txns, cache, l)

	a.transfers = usecase.NewTransferUseCase(
		repos.txManager, repos.accounts, repos.txns, repos.entries, repos.outbox, refRegistry, locker, ids,
		usecase.WithMetrics(a.metrics),
		usecase.WithLogger(l),
		usecase.WithLockTimeout(cfg.LockTimeout),
		usecase.WithReferenceGenerator(postgresRepo.NewReferenceGenerator()),
	)
	a.accounts = usecase.NewAccountUseCase(repos.txManager, repos.accounts, repos.outbox, a.transfers, locker, ids, a.metrics, l)
	a.queries = usecase.NewQueryUseCase(repos.accounts, repos.txns, repos.entries, refRegistry, repos.retrier)
	a.ledger = usecase.NewLedgerUseCase(repos.ledger)
	a.reconciliation = usecase.NewReconciliationUseCase(repos.txManager, repos.accounts, repos.entries, repos.ledger, locker, a.metrics, l)

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: repos.outbox,
		Publisher:  events,
		Metrics:    a.metrics,
		Logger:     l,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})

	a.corsOrigins = cfg.CORSAllowedOrigins

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, a.metrics)
	}

	if _, err := a.accounts.EnsureFundingAccount(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

// Router builds the HTTP handler.
func (a *app) Router() http.Handler {
	return httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(a.accounts, a.queries),
		TransferHandler: handler.NewTransferHandler(a.transfers, a.queries),
		LedgerHandler:   handler.NewLedgerHandler(a.ledger, a.reconciliation),
		HealthHandler:   handler.NewHealthHandler(a.checks),
		Logger:          a.logger,
		Metrics:         a.metrics,
		Gatherer:        a.registry,
		RateLimiter:     a.rateLimiter,
		CORSOrigins:     a.corsOrigins,
	})
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
