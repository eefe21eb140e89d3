package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	jwttoken "fellowship/internal/jwt_token"
	"fellowship/internal/invite/store/preview"
	"fellowship/internal/message/publisher"
	"fellowship/internal/platform/config"
	"fellowship/internal/platform/httpserver"
	"fellowship/internal/platform/logger"
	"fellowship/internal/platform/metrics"
	"fellowship/internal/platform/postgres"
	"fellowship/internal/platform/redis"
	"fellowship/internal/platform/tracing"
	"fellowship/pkg/platform/audit/kafka"
	auditpublisher "fellowship/pkg/platform/audit/publisher"
)

const (
	shutdownTimeout  = 10 * time.Second
	auditBufferSize  = 1024
	auditPartitions  = 3
	auditReplication = 1
)

// main loads configuration, connects the optional backends, and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	b, closeStores, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	var in infra

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		in.previewCache = preview.NewRedisCache(redisClient.Client)
		log.Info("invite preview cache enabled")
	}

	natsConn, err := publisher.Connect(cfg.NATSURL, log)
	if err != nil {
		return err
	}
	if natsConn != nil {
		defer natsConn.Drain()
		in.publisher = publisher.New(natsConn, publisher.WithLogger(log))
		log.Info("message fan-out enabled", "url", natsConn.ConnectedUrl())
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.New(cfg.KafkaBrokers, cfg.AuditTopic, kafka.WithLogger(log))
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, auditPartitions, auditReplication); err != nil {
			return err
		}
		pub := auditpublisher.NewPublisher(producer,
			auditpublisher.WithAsyncBuffer(auditBufferSize),
			auditpublisher.WithLogger(log),
		)
		defer pub.Close()
		in.audit = pub
		log.Info("audit events shipped to kafka", "topic", cfg.AuditTopic)
	}

	m := metrics.New()
	h, err := buildHandlers(cfg, log, m, b, in)
	if err != nil {
		return err
	}
	router := newRouter(routerDeps{
		handlers:   h,
		validator:  jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.JWTSigningKey, "", "")),
		adminToken: cfg.AdminToken,
		metrics:    m,
		gatherer:   prometheus.DefaultGatherer,
		logger:     log,
	})

	srv := httpserver.New(cfg.Addr, otelhttp.NewHandler(router, cfg.ServiceName))
	log.Info("starting fellowship", "addr", cfg.Addr, "env", cfg.Env)
	return httpserver.Run(ctx, srv, log, shutdownTimeout)
}

// openBackends selects Postgres when DATABASE_URL is set and in-memory stores otherwise.
func openBackends(ctx context.Context, cfg config.Server, log *slog.Logger) (*backends, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores; failed operations are not rolled back")
		return memoryBackends(), func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, nil, errors.Join(err, db.Close())
		}
	}
	return postgresBackends(db), func() { _ = db.Close() }, nil
}
