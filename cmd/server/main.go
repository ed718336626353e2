package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"marriage-registry/internal/certificate/cache"
	"marriage-registry/internal/certificate/events"
	certhandler "marriage-registry/internal/certificate/handler"
	certmetrics "marriage-registry/internal/certificate/metrics"
	"marriage-registry/internal/certificate/service"
	"marriage-registry/internal/certificate/store"
	"marriage-registry/internal/certificate/tracer"
	"marriage-registry/internal/platform/config"
	"marriage-registry/internal/platform/database"
	"marriage-registry/internal/platform/health"
	"marriage-registry/internal/platform/kafka/consumer"
	"marriage-registry/internal/platform/kafka/producer"
	"marriage-registry/internal/platform/logger"
	"marriage-registry/internal/platform/metrics"
	platformredis "marriage-registry/internal/platform/redis"
	"marriage-registry/internal/ratelimit"
	httptransport "marriage-registry/internal/transport/http"
	"marriage-registry/migrations"
	"marriage-registry/pkg/platform/circuit"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	if cfg.IsProduction() && cfg.AdminTokenHash == "" && cfg.AdminToken == config.DefaultAdminToken {
		return errors.New("REGISTRY_ADMIN_TOKEN or REGISTRY_ADMIN_TOKEN_HASH must be set in production")
	}

	log.Info("initializing marriage registry",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"database", cfg.Database.URL != "",
		"redis", cfg.Redis.URL != "",
		"kafka", cfg.Kafka.Enabled(),
		"rate_limit", cfg.RateLimit.Enabled,
	)

	reg := metrics.NewRegistry(health.Version, cfg.Environment)
	certMetrics := certmetrics.New(reg)
	probes := health.New(cfg.Environment)

	certStore, closeStore, err := buildStore(ctx, cfg.Database, probes, log)
	if err != nil {
		return err
	}
	defer closeStore()

	verifyCache, redisClient, err := buildCache(ctx, cfg, reg, certMetrics, probes, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // shutdown
	}

	var (
		publisher events.Publisher = events.NoopPublisher{}
		cons      *consumer.Consumer
	)
	if cfg.Kafka.Enabled() {
		prod, err := producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), log)
		if err != nil {
			return fmt.Errorf("start kafka producer: %w", err)
		}
		defer prod.Close() //nolint:errcheck // shutdown
		probes.RegisterCheck("kafka", prod.Health)
		publisher = events.NewKafkaPublisher(prod, cfg.Kafka.Topic, certMetrics)

		// Each instance keeps its own cache, so each needs every revocation.
		cons, err = consumer.New(consumer.Config{
			Brokers: cfg.Kafka.Brokers,
			GroupID: instanceGroupID(cfg.Kafka.ConsumerGroup),
			Topics:  []string{cfg.Kafka.Topic},
		}, events.NewCacheInvalidationHandler(verifyCache, log), log)
		if err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
	}

	svc := service.New(certStore,
		service.WithCache(verifyCache),
		service.WithPublisher(publisher),
		service.WithTracer(tracer.NewOTel()),
		service.WithMetrics(certMetrics),
		service.WithLogger(log),
	)
	certificates := certhandler.New(svc, log)

	var (
		publicLimit  func(http.Handler) http.Handler
		localLimiter *ratelimit.MemoryLimiter
	)
	if cfg.RateLimit.Enabled {
		policy := ratelimit.Policy{Requests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window}
		var limiter ratelimit.Limiter
		if redisClient != nil {
			limiter = ratelimit.NewRedisLimiter(redisClient.Client, policy)
		} else {
			localLimiter = ratelimit.NewMemoryLimiter(policy)
			limiter = localLimiter
		}
		publicLimit = ratelimit.NewMiddleware(limiter, "public", log, reg).Handler
	}

	router := httptransport.NewRouter(httptransport.Config{
		AdminToken:     cfg.AdminToken,
		AdminTokenHash: cfg.AdminTokenHash,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		TrustedProxies: cfg.TrustedProxies,
	}, httptransport.Routes{
		Health:      probes,
		Public:      []httptransport.RouteRegistrar{certificates},
		Admin:       []httptransport.AdminRouteRegistrar{certificates},
		Registry:    reg,
		PublicLimit: publicLimit,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if redisClient != nil {
		g.Go(func() error { return redisClient.RunPoolStats(gctx, poolStatsInterval) })
	}
	if cons != nil {
		g.Go(func() error { return cons.Run(gctx) })
	}
	if localLimiter != nil {
		g.Go(func() error { return localLimiter.RunSweeper(gctx, cfg.RateLimit.Window) })
	}
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildStore opens PostgreSQL when configured and falls back to the
// in-memory store otherwise.
func buildStore(ctx context.Context, cfg config.DatabaseConfig, probes *health.Handler, log *slog.Logger) (service.Store, func(), error) {
	pool, err := database.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if pool == nil {
		log.Warn("DATABASE_URL not set, certificates are kept in memory")
		return store.NewInMemoryStore(), func() {}, nil
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
			pool.Close() //nolint:errcheck // init failure
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	probes.RegisterCheck("database", pool.Health)
	return store.NewPostgres(pool.DB()), func() { _ = pool.Close() }, nil
}

// buildCache uses Redis when configured and a process-local cache otherwise.
func buildCache(ctx context.Context, cfg config.Server, reg prometheus.Registerer, m *certmetrics.Metrics, probes *health.Handler, log *slog.Logger) (service.VerificationCache, *platformredis.Client, error) {
	client, err := platformredis.New(ctx, cfg.Redis, reg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		return cache.NewMemoryCache(cfg.VerifyCacheTTL, cache.WithMetrics(m)), nil, nil
	}
	probes.RegisterCheck("redis", client.Health)
	breaker := circuit.New("verification-cache")
	return cache.NewGuardedCache(cache.NewRedisCache(client.Client, cfg.VerifyCacheTTL, m), breaker, log), client, nil
}

// instanceGroupID derives a per-instance consumer group from the configured
// base so restarts of the same host resume their offsets.
func instanceGroupID(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = uuid.NewString()
	}
	return base + "-" + host
}
