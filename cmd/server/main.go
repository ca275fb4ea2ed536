package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"clearledger/internal/auth/authn"
	"clearledger/internal/auth/cache"
	authhandler "clearledger/internal/auth/handler"
	"clearledger/internal/auth/resolver"
	authservice "clearledger/internal/auth/service"
	userstore "clearledger/internal/auth/store/user"
	httpapi "clearledger/internal/http"
	"clearledger/internal/idgen"
	jwttoken "clearledger/internal/jwt_token"
	ledgerhandler "clearledger/internal/ledger/handler"
	ledgerservice "clearledger/internal/ledger/service"
	ledgerstore "clearledger/internal/ledger/store"
	"clearledger/internal/platform/config"
	"clearledger/internal/platform/httpserver"
	"clearledger/internal/platform/logger"
	"clearledger/internal/platform/metrics"
	"clearledger/internal/platform/middleware"
	"clearledger/internal/platform/postgres"
	"clearledger/internal/platform/redis"
	"clearledger/internal/serial"
	"clearledger/pkg/platform/audit"
	"clearledger/pkg/platform/audit/publisher"
	kafkastore "clearledger/pkg/platform/audit/store/kafka"
	"clearledger/pkg/platform/audit/store/logsink"
	"clearledger/pkg/platform/circuit"
)

// main wires dependencies and runs the server and the midnight serial reset
// until SIGINT or SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type serialStore interface {
	idgen.SerialSource
	serial.Resetter
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	checks := map[string]httpapi.HealthCheck{}

	var (
		serials serialStore        = serial.NewMemory()
		users   resolver.UserCache = cache.NewMemory()
	)
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		serials = serial.NewRedis(redisClient.Client, cfg.Serial.Namespace)
		users = cache.NewRedis(redisClient.Client, cfg.Serial.Namespace)
		checks["redis"] = redisClient.Health
		log.Info("redis configured")
	} else {
		log.Warn("REDIS_URL not set, serial counters and user cache are in-memory")
	}

	var (
		userRepo   authservice.UserStore = userstore.New()
		ledgerRepo ledgerservice.Store   = ledgerstore.NewInMemory()
	)
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		userRepo = userstore.NewPostgres(db)
		ledgerRepo = ledgerstore.NewPostgres(db)
		checks["postgres"] = db.PingContext
		log.Info("postgres configured")
	} else {
		log.Warn("DATABASE_URL not set, users and ledgers are in-memory")
	}

	auditStore, closeAudit, err := newAuditStore(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	auditor := publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(1024), publisher.WithLogger(log))
	defer auditor.Close()

	composer := idgen.New(serials, idgen.WithMetrics(m))
	userResolver := resolver.New(users, userRepo, cfg.Auth.UserCacheTTL, log, resolver.WithMetrics(m),
		resolver.WithBreaker(circuit.New("user-cache")),
	)
	provider := authn.NewProvider(userRepo, userResolver, log)
	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)

	auth := authservice.New(userRepo, composer, provider, jwt, userResolver,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditor),
		authservice.WithMetrics(m),
		authservice.WithBcryptCost(cfg.Auth.BcryptCost),
	)
	ledgers := ledgerservice.New(ledgerRepo, composer, userRepo,
		ledgerservice.WithLogger(log),
		ledgerservice.WithAuditPublisher(auditor),
		ledgerservice.WithMetrics(m),
	)
	loginLimiter := middleware.NewRateLimiter(cfg.Server.LoginRatePerMinute, log)
	trustedProxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:        log,
		Metrics:       m,
		Gatherer:      reg,
		Verifier:      jwttoken.NewJWTServiceAdapter(jwt),
		Authenticator: provider,
		Handlers: []httpapi.RouteRegistrar{
			authhandler.New(auth, log, loginLimiter.Middleware),
			ledgerhandler.New(ledgers, log),
		},
		HealthChecks:   checks,
		TrustedProxies: trustedProxies,
	})
	srv := httpserver.New(cfg.Server, router)
	scheduler := serial.NewResetScheduler(serials, idgen.Tags(), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	g.Go(func() error {
		if err := scheduler.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}

// newAuditStore selects Kafka when brokers are configured and the slog sink
// otherwise.
func newAuditStore(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, audit events go to the log")
		return logsink.New(log), func() {}, nil
	}
	store, err := kafkastore.New(cfg.Brokers, cfg.AuditTopic)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	log.Info("kafka audit stream configured", "topic", cfg.AuditTopic)
	return store, store.Close, nil
}
