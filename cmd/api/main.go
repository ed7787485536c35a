// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/tenant-api/internal/admin"
	"github.com/carterperez-dev/templates/tenant-api/internal/audit"
	"github.com/carterperez-dev/templates/tenant-api/internal/auth"
	"github.com/carterperez-dev/templates/tenant-api/internal/config"
	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/events"
	"github.com/carterperez-dev/templates/tenant-api/internal/health"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
	"github.com/carterperez-dev/templates/tenant-api/internal/profile"
	"github.com/carterperez-dev/templates/tenant-api/internal/role"
	"github.com/carterperez-dev/templates/tenant-api/internal/server"
	"github.com/carterperez-dev/templates/tenant-api/internal/storage"
	"github.com/carterperez-dev/templates/tenant-api/internal/tenant"
	"github.com/carterperez-dev/templates/tenant-api/internal/user"
)

const (
	drainDelay      = 5 * time.Second
	sessionSweepTTL = 15 * time.Minute
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	hasher, err := core.NewPasswordHasher(cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	healthDeps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}

	var publisher events.Publisher = events.NoopPublisher{}
	var kafka *events.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafka, err = events.NewKafkaPublisher(cfg.Kafka, logger)
		if err != nil {
			return err
		}
		publisher = kafka
		healthDeps = append(healthDeps, health.Dependency{
			Name: "kafka", Checker: kafka, Optional: true,
		})
		logger.Info("kafka publisher initialized",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
	}

	var objects storage.ObjectStore = storage.DisabledStore{}
	if cfg.Storage.Enabled {
		s3Store, s3Err := storage.NewS3Store(ctx, cfg.Storage)
		if s3Err != nil {
			return s3Err
		}
		objects = s3Store
		healthDeps = append(healthDeps, health.Dependency{
			Name: "storage", Checker: s3Store, Optional: true,
		})
		logger.Info("object storage initialized",
			"bucket", cfg.Storage.Bucket,
			"region", cfg.Storage.Region,
		)
	}

	txRunner := core.NewTxRunner(db.DB)
	auditSvc := audit.NewService(audit.NewRepository(db.DB), logger)
	auditHandler := audit.NewHandler(auditSvc)
	eb := middleware.NewErrorBoundary(auditSvc, logger)

	userRepo := user.NewRepository(db.DB)
	authRepo := auth.NewRepository(db.DB)

	roleSvc := role.NewService(role.NewRepository(db.DB), userRepo, auditSvc, publisher)
	roleHandler := role.NewHandler(roleSvc)

	tenantSvc := tenant.NewService(tenant.ServiceDeps{
		Repo:   tenant.NewRepository(db.DB),
		Tx:     txRunner,
		Cache:  tenant.NewRedisCache(redis.Client, cfg.Tenant.CacheTTL),
		Roles:  roleSvc,
		Audit:  auditSvc,
		Events: publisher,
		Logger: logger,
	})
	tenantHandler := tenant.NewHandler(tenantSvc)

	userSvc := user.NewService(user.ServiceDeps{
		Repo:     userRepo,
		Tx:       txRunner,
		Hasher:   hasher,
		Roles:    roleSvc,
		Sessions: authRepo,
		Audit:    auditSvc,
		Events:   publisher,
		Logger:   logger,
	})
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(auth.ServiceDeps{
		Repo:                authRepo,
		JWT:                 jwtManager,
		Users:               userSvc,
		Roles:               roleSvc,
		Tenants:             tenantSvc,
		Blacklist:           auth.NewRedisBlacklist(redis.Client),
		Hasher:              hasher,
		Audit:               auditSvc,
		RotateRefreshTokens: cfg.JWT.RotateRefreshTokens,
		Logger:              logger,
	})
	authHandler := auth.NewHandler(authSvc)

	profileSvc := profile.NewService(profile.ServiceDeps{
		Repo:    profile.NewRepository(db.DB),
		Users:   userRepo,
		Storage: objects,
		Audit:   auditSvc,
		Events:  publisher,
	})
	profileHandler := profile.NewHandler(profileSvc, cfg.Storage.MaxUploadBytes)

	healthHandler := health.NewHandler(healthDeps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Tenants:    tenantSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.CorrelationID)
	router.Use(eb.Recoverer)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.Per(
				cfg.RateLimit.Window,
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc, eb.WriteError)

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.TenantResolver(middleware.TenantResolverConfig{
			Lookup:     tenantSvc,
			Exclusions: middleware.DefaultTenantExclusions,
			OnError:    eb.WriteError,
		}))

		authHandler.RegisterRoutes(r, eb, authenticator)
		userHandler.RegisterRoutes(r, eb, authenticator)
		profileHandler.RegisterRoutes(r, eb, authenticator)
		roleHandler.RegisterRoutes(r, eb, authenticator)
		auditHandler.RegisterRoutes(r, eb, authenticator)
		tenantHandler.RegisterRoutes(r, eb)
		tenantHandler.RegisterAdminRoutes(r, eb, authenticator, eb.RequireSuperAdmin)
		adminHandler.RegisterRoutes(r, eb, authenticator, eb.RequireSuperAdmin)
	})

	go sweepSessions(ctx, authSvc, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if kafka != nil {
		if err := kafka.Close(shutdownCtx); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func sweepSessions(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions purged", "count", n)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
