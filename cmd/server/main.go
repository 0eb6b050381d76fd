package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	ibanhandler "ibanmanager/internal/iban/handler"
	ibanmetrics "ibanmanager/internal/iban/metrics"
	ibanservice "ibanmanager/internal/iban/service"
	ibanstore "ibanmanager/internal/iban/store"
	"ibanmanager/internal/platform/config"
	"ibanmanager/internal/platform/database"
	"ibanmanager/internal/platform/health"
	"ibanmanager/internal/platform/kafka/consumer"
	"ibanmanager/internal/platform/kafka/producer"
	"ibanmanager/internal/platform/logger"
	"ibanmanager/internal/platform/redis"
	"ibanmanager/migrations"
	"ibanmanager/pkg/platform/audit"
	auditconsumer "ibanmanager/pkg/platform/audit/consumer"
	auditmetrics "ibanmanager/pkg/platform/audit/metrics"
	"ibanmanager/pkg/platform/audit/outbox"
	outboxmetrics "ibanmanager/pkg/platform/audit/outbox/metrics"
	outboxmemory "ibanmanager/pkg/platform/audit/outbox/store/memory"
	outboxpostgres "ibanmanager/pkg/platform/audit/outbox/store/postgres"
	"ibanmanager/pkg/platform/audit/outbox/worker"
	"ibanmanager/pkg/platform/audit/publisher"
	auditmemory "ibanmanager/pkg/platform/audit/store/memory"
	auditoutbox "ibanmanager/pkg/platform/audit/store/outbox"
	auditpostgres "ibanmanager/pkg/platform/audit/store/postgres"
	"ibanmanager/pkg/platform/middleware/auth"
	"ibanmanager/pkg/platform/middleware/metadata"
	"ibanmanager/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 10 * time.Second
	requestTimeout    = 30 * time.Second
	maxBodyBytes      = 1 << 20
	poolStatsInterval = 15 * time.Second
)

// infra holds the optional backing services. Nil fields mean "not configured".
type infra struct {
	db       *database.Pool
	redis    *redis.Client
	producer *producer.Producer
}

// main wires dependencies and runs the HTTP server, the outbox worker, the
// audit trail consumer and the pool stats pump until SIGINT or SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("initializing ibanmanager",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"postgres", cfg.Database.URL != "",
		"redis", cfg.Redis.URL != "",
		"kafka", cfg.Kafka.Enabled(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize infrastructure", "error", err)
		os.Exit(1)
	}
	defer deps.close(log)

	auditMetrics := auditmetrics.New()
	entries, auditStore, trail := buildAuditStore(deps)
	svc := buildService(cfg, deps, auditStore, trail, auditMetrics, log)

	trailConsumer, err := buildTrailConsumer(cfg, deps, auditMetrics, log)
	if err != nil {
		log.Error("failed to initialize audit trail consumer", "error", err)
		os.Exit(1)
	}

	signer, err := auth.NewHS256(cfg.JWTSigningKey)
	if err != nil {
		log.Error("invalid JWT configuration", "error", err)
		os.Exit(1)
	}

	proxies, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Error("invalid TRUSTED_PROXIES", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New(cfg.Environment)
	deps.registerChecks(healthHandler)
	if trailConsumer != nil {
		healthHandler.RegisterCheck("audit_consumer", trailConsumer.Healthy)
	}

	router := newRouter(log, ibanhandler.New(svc, log), healthHandler, signer, metadata.NewMiddleware(metadata.Config{TrustedProxies: proxies}))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var outboxWorker *worker.Worker
	if deps.producer != nil && entries != nil {
		outboxWorker = worker.New(entries, deps.producer,
			worker.WithTopic(cfg.Kafka.AuditTopic),
			worker.WithBatchSize(cfg.Outbox.BatchSize),
			worker.WithPollInterval(cfg.Outbox.PollInterval),
			worker.WithRetention(cfg.Outbox.Retention),
			worker.WithMetrics(outboxmetrics.New()),
			worker.WithLogger(log),
		)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		if outboxWorker != nil {
			if err := outboxWorker.Stop(shutdownCtx); err != nil {
				log.Warn("outbox worker did not drain", "error", err)
			}
		}
		if trailConsumer != nil {
			if err := trailConsumer.Stop(shutdownCtx); err != nil {
				log.Warn("audit trail consumer did not stop cleanly", "error", err)
			}
		}
		return nil
	})

	if outboxWorker != nil {
		outboxWorker.Start()
	}
	if trailConsumer != nil {
		trailConsumer.Start()
	}

	if deps.redis != nil {
		g.Go(func() error {
			ticker := time.NewTicker(poolStatsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
					deps.redis.RecordPoolStats()
				}
			}
		})
	}

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		deps.close(log)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func connect(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	deps := &infra{}

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		deps.db = pool
		if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
			deps.close(log)
			return nil, err
		}
		log.Info("postgres connected and migrated")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		deps.close(log)
		return nil, err
	}
	deps.redis = rc

	if cfg.Kafka.Enabled() {
		p, err := producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			Acks:            cfg.Kafka.Acks,
			Retries:         cfg.Kafka.Retries,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
		}, log)
		if err != nil {
			deps.close(log)
			return nil, err
		}
		deps.producer = p
		if err := p.EnsureTopic(ctx, cfg.Kafka.AuditTopic, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
	}
	return deps, nil
}

// buildAuditStore picks where audit events land and where the trail is read
// from. With Postgres and Kafka they go to the outbox table inside the IBAN
// transaction and the trail is the audit_events projection fed by the
// consumer. With Postgres alone they are written to audit_events directly in
// the same transaction. With Kafka alone they go to an in-memory outbox and no
// trail is kept. Otherwise they stay in memory and are read back from there.
func buildAuditStore(deps *infra) (outbox.Store, audit.Store, ibanservice.AuditTrail) {
	switch {
	case deps.db != nil && deps.producer != nil:
		entries := outboxpostgres.New(deps.db.DB())
		return entries, auditoutbox.New(entries), auditpostgres.New(deps.db.DB())
	case deps.db != nil:
		trail := auditpostgres.New(deps.db.DB())
		return nil, trail, trail
	case deps.producer != nil:
		entries := outboxmemory.New()
		return entries, auditoutbox.New(entries), nil
	default:
		store := auditmemory.NewInMemoryStore()
		return nil, store, store
	}
}

// buildTrailConsumer projects the audit topic into audit_events. It needs
// both Kafka and Postgres.
func buildTrailConsumer(cfg config.Server, deps *infra, m *auditmetrics.Metrics, log *slog.Logger) (*consumer.Consumer, error) {
	if deps.db == nil || deps.producer == nil {
		return nil, nil
	}
	handler := auditconsumer.NewHandler(auditpostgres.New(deps.db.DB()), log, auditconsumer.WithMetrics(m))
	return consumer.New(consumer.Config{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.AuditConsumerGroup,
		Topics:  []string{cfg.Kafka.AuditTopic},
	}, handler, log)
}

func buildService(cfg config.Server, deps *infra, auditStore audit.Store, trail ibanservice.AuditTrail, m *auditmetrics.Metrics, log *slog.Logger) *ibanservice.Service {
	opts := []ibanservice.Option{
		ibanservice.WithLogger(log),
		// Synchronous: the outbox write must join the caller's transaction.
		ibanservice.WithAuditPublisher(publisher.NewPublisher(auditStore,
			publisher.WithPublisherLogger(log),
			publisher.WithPublisherMetrics(m),
		)),
		ibanservice.WithMetrics(ibanmetrics.New()),
		ibanservice.WithAuditTrail(trail),
	}

	if deps.db == nil {
		return ibanservice.New(ibanstore.NewInMemory(), opts...)
	}

	var repo ibanservice.IBANStore = ibanstore.NewPostgres(deps.db.DB())
	if deps.redis != nil {
		repo = ibanstore.NewCached(ibanstore.NewPostgres(deps.db.DB()), deps.redis.Client,
			ibanstore.WithCacheTTL(cfg.IBANCacheTTL),
			ibanstore.WithCacheLogger(log),
		)
	}
	opts = append(opts, ibanservice.WithTx(newIBANPostgresTx(deps.db.DB())))
	return ibanservice.New(repo, opts...)
}

func newRouter(log *slog.Logger, ibans *ibanhandler.Handler, healthHandler *health.Handler, validator auth.JWTValidator, client *metadata.Middleware) *chi.Mux {
	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(client.Handler)
	r.Use(request.RequestTime)
	r.Use(request.Logger(log))
	r.Use(request.LatencyMiddleware(request.NewMetrics()))

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(requestTimeout))
		r.Use(request.BodyLimit(maxBodyBytes))
		r.Use(request.ContentTypeJSON)
		r.Use(auth.RequireAuth(validator, log))
		ibans.Register(r)
	})
	return r
}

func (d *infra) registerChecks(h *health.Handler) {
	if d.db != nil {
		h.RegisterCheck("postgres", d.db.Health)
	}
	if d.redis != nil {
		h.RegisterCheck("redis", d.redis.Health)
	}
	if d.producer != nil {
		h.RegisterCheck("kafka", d.producer.Healthy)
	}
}

func (d *infra) close(log *slog.Logger) {
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			log.Warn("failed to close kafka producer", "error", err)
		}
		d.producer = nil
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Warn("failed to close redis", "error", err)
		}
		d.redis = nil
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.Warn("failed to close postgres", "error", err)
		}
		d.db = nil
	}
}
