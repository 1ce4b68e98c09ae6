// Package app assembles the custody service from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"custody/internal/custody/adapters"
	custodyhandler "custody/internal/custody/handler"
	custodymetrics "custody/internal/custody/metrics"
	custodyservice "custody/internal/custody/service"
	"custody/internal/custody/store/history"
	"custody/internal/custody/store/item"
	eventsmetrics "custody/internal/events/metrics"
	"custody/internal/events/outbox"
	"custody/internal/events/publishers"
	identityhandler "custody/internal/identity/handler"
	identitymetrics "custody/internal/identity/metrics"
	"custody/internal/identity/seed"
	identityservice "custody/internal/identity/service"
	"custody/internal/identity/store/participant"
	"custody/internal/identity/store/pending"
	"custody/internal/identity/store/request"
	jwttoken "custody/internal/jwt_token"
	"custody/internal/platform/config"
	"custody/internal/platform/httpserver"
	"custody/internal/platform/kafka"
	"custody/internal/platform/memtx"
	"custody/internal/platform/metrics"
	"custody/internal/platform/postgres"
	"custody/internal/platform/redis"
	httptransport "custody/internal/transport/http"
)

// identityLockKey is the advisory lock serializing the registration workflow.
const identityLockKey int64 = 0x637573746f6479

// App holds the assembled services and their infrastructure.
type App struct {
	Config   config.Server
	Logger   *slog.Logger
	Identity *identityservice.Service
	Ledger   *custodyservice.Service
	Relay    *outbox.Relay
	Tokens   *jwttoken.JWTService
	Registry *prometheus.Registry
	Router   http.Handler

	db      *sql.DB
	redis   *redis.Client
	kafka   *kafka.Client
	closers []func() error
}

// New connects the configured backends and builds every component. Without
// DATABASE_URL all state lives in memory; REDIS_URL and KAFKA_BROKERS are
// optional.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Tokens:   jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, jwttoken.DefaultAudience),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if cfg.UsesDevSigningKey() {
		logger.Warn("using the development JWT signing key; set JWT_SIGNING_KEY in production")
	}

	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.build()
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	db, err := postgres.Open(ctx, a.Config.Database)
	if err != nil {
		return err
	}
	if db != nil {
		a.db = db
		a.closers = append(a.closers, db.Close)
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rc, err := redis.New(ctx, a.Config.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		a.redis = rc
		a.closers = append(a.closers, rc.Close)
	}

	kc, err := kafka.New(ctx, a.Config.Kafka)
	if err != nil {
		return err
	}
	if kc != nil {
		a.kafka = kc
		a.closers = append(a.closers, func() error { kc.Close(); return nil })
		if err := kc.EnsureTopic(ctx, 3, 1); err != nil {
			a.Logger.WarnContext(ctx, "could not ensure kafka topic", "topic", kc.Topic(), "error", err)
		}
	}
	return nil
}

type outboxStore interface {
	outbox.Writer
	outbox.Source
}

func (a *App) build() {
	cfg := a.Config
	admin := cfg.Admin()

	var (
		identityStores identityservice.Stores
		ledgerStores   custodyservice.Stores
		events         outboxStore
		identityTx     identityservice.StoreTx
		ledgerTx       custodyservice.StoreTx
	)
	if a.db != nil {
		events = outbox.NewPostgres(a.db)
		identityStores = identityservice.Stores{
			Participants: participant.NewPostgres(a.db),
			Requests:     request.NewPostgres(a.db),
			Pending:      pending.NewPostgres(a.db),
		}
		ledgerStores = custodyservice.Stores{
			Items:   item.NewPostgres(a.db),
			History: history.NewPostgres(a.db),
		}
		identityTx = postgres.NewTx(a.db, postgres.WithAdvisoryLock(identityLockKey), postgres.WithTimeout(cfg.TxTimeout))
		ledgerTx = postgres.NewTx(a.db, postgres.WithTimeout(cfg.TxTimeout))
	} else {
		events = outbox.NewMemory()
		identityStores = identityservice.Stores{
			Participants: participant.NewInMemory(),
			Requests:     request.NewInMemory(),
			Pending:      pending.NewInMemory(),
		}
		ledgerStores = custodyservice.Stores{
			Items:   item.NewInMemory(),
			History: history.NewInMemory(),
		}
		identityTx = memtx.NewLanes(cfg.TxTimeout)
		ledgerTx = memtx.NewLanes(cfg.TxTimeout)
	}
	identityStores.Outbox = events
	ledgerStores.Outbox = events

	a.Identity = identityservice.New(identityStores, admin,
		identityservice.WithLogger(a.Logger),
		identityservice.WithMetrics(identitymetrics.NewWithRegistry(a.Registry)),
		identityservice.WithTx(identityTx),
	)

	var registry custodyservice.Registry = a.Identity
	if a.redis != nil {
		registry = adapters.NewCachedRegistry(a.Identity, a.redis.Client, cfg.RegistryCacheTTL, a.Logger)
	}
	a.Ledger = custodyservice.New(ledgerStores, registry,
		custodyservice.WithLogger(a.Logger),
		custodyservice.WithMetrics(custodymetrics.NewWithRegistry(a.Registry)),
		custodyservice.WithTx(ledgerTx),
	)

	sinks := []outbox.Publisher{publishers.NewLog(a.Logger)}
	if a.redis != nil {
		sinks = append(sinks, publishers.NewRedis(a.redis.Client))
	}
	if a.kafka != nil {
		sinks = append(sinks, publishers.NewKafka(a.kafka.Client, a.kafka.Topic()))
	}
	a.Relay = outbox.NewRelay(events, publishers.NewFanout(sinks...),
		outbox.WithPollInterval(cfg.Outbox.PollInterval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithLogger(a.Logger),
		outbox.WithMetrics(eventsmetrics.NewWithRegistry(a.Registry)),
	)

	a.Router = httptransport.NewRouter(httptransport.Deps{
		Handlers: []httptransport.Mounter{
			identityhandler.New(a.Identity, a.Logger),
			custodyhandler.New(a.Ledger, a.Logger),
		},
		Validator: jwttoken.NewJWTServiceAdapter(a.Tokens),
		Metrics:   metrics.NewWithRegistry(a.Registry),
		Gatherer:  a.Registry,
		Health:    a.healthChecks(),
		Logger:    a.Logger,
	})
}

func (a *App) healthChecks() map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{}
	if a.db != nil {
		checks["postgres"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}
	if a.kafka != nil {
		checks["kafka"] = a.kafka.Health
	}
	return checks
}

// DB returns the Postgres pool, or nil when running in memory.
func (a *App) DB() *sql.DB {
	return a.db
}

// Seed enrolls the participants listed in path.
func (a *App) Seed(ctx context.Context, path string) (int, error) {
	file, err := seed.Load(path)
	if err != nil {
		return 0, err
	}
	return seed.Apply(ctx, a.Identity, a.Identity.Admin(), file, a.Logger)
}

// Run serves HTTP and relays notifications until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.Config.SeedFile != "" {
		if _, err := a.Seed(ctx, a.Config.SeedFile); err != nil {
			return fmt.Errorf("seed participants: %w", err)
		}
	}

	srv := httpserver.New(a.Config.Addr, a.Router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.InfoContext(gctx, "starting custody server", "addr", a.Config.Addr)
		return httpserver.Serve(gctx, srv)
	})
	g.Go(func() error {
		return a.Relay.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// Drain what the last requests queued.
	drainCtx, cancel := context.WithTimeout(context.Background(), a.Config.TxTimeout)
	defer cancel()
	if _, err := a.Relay.Flush(drainCtx); err != nil {
		a.Logger.Warn("final outbox flush failed", "error", err)
	}
	return nil
}

// Close releases backend connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
