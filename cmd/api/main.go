// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/inventory-service/internal/adapters/db"
	"github.com/ammerola/inventory-service/internal/adapters/queue"
	redis_a "github.com/ammerola/inventory-service/internal/adapters/redis_adapter"
	"github.com/ammerola/inventory-service/internal/adapters/storage"
	"github.com/ammerola/inventory-service/internal/core/ports"
	"github.com/ammerola/inventory-service/internal/core/services"
	"github.com/ammerola/inventory-service/internal/handlers"
	"github.com/ammerola/inventory-service/internal/handlers/middleware"
	"github.com/ammerola/inventory-service/internal/pkg/config"
	"github.com/ammerola/inventory-service/internal/pkg/logger"
	"github.com/ammerola/inventory-service/internal/pkg/telemetry"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Run a migration command (up, down, status, force=N) and exit")
	flag.Parse()

	bootLogger := logger.SetupLogger(&logger.LogConfig{Level: "debug", Format: "json"})

	bootLogger.Info("starting inventory service",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(bootLogger.Logger)
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	appLogger := logger.SetupLogger(&logger.LogConfig{
		Level:          cfg.App.LogLevel,
		Format:         cfg.App.LogFormat,
		AddSource:      cfg.App.Debug,
		Environment:    cfg.App.Environment,
		ServiceName:    cfg.App.Name,
		ServiceVersion: Version,
	})
	slogger := appLogger.Logger

	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if *migrateCmd != "" {
		if err := runMigrateCommand(ctx, cfg, *migrateCmd, os.Stdout, slogger); err != nil {
			slogger.Error("migration command failed",
				slog.String("command", *migrateCmd),
				slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, appLogger); err != nil {
		slogger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) error {
	slogger := appLogger.Logger

	secrets, err := config.NewSecretsManager(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to create secrets manager: %w", err)
	}
	if err := config.LoadSecrets(ctx, cfg, secrets); err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		ServiceName:    cfg.App.Name,
		ServiceVersion: Version,
		Environment:    cfg.App.Environment,
	}, slogger)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slogger.Warn("failed to flush traces", slog.Any("error", err))
		}
	}()

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.cleanup()

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	limiterCtx, cancelLimiter := context.WithCancel(ctx)
	defer cancelLimiter()

	server := setupHTTPServer(limiterCtx, cfg, deps, appLogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slogger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("failed to gracefully shutdown server", slog.Any("error", err))
		server.Close()
	}

	slogger.Info("server shutdown complete")
	return nil
}

// dependencies holds all application dependencies
type dependencies struct {
	database         *db.Database
	redisClient      *redis.Client
	redisCache       *redis_a.Cache
	asynqClient      *asynq.Client
	asynqInspector   *asynq.Inspector
	inventoryService *services.InventoryService
	inventoryHandler *handlers.InventoryHandler
	healthHandler    *handlers.HealthHandler
	exportHandler    *handlers.ExportHandler
}

func (d *dependencies) cleanup() {
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis", slog.String("address", cfg.RedisAddr()))

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	deps.redisClient = redisClient

	// Redis only backs idempotency and export caching, so an outage is
	// reported by /ready rather than failing startup
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", slog.Any("error", err))
	}

	deps.redisCache = redis_a.NewCache(redisClient, cfg.Redis.IdempotencyTTL, logger)
	idempotency := redis_a.NewIdempotencyStore(deps.redisCache, logger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	publisher := queue.NewPublisher(deps.asynqClient, cfg.Asynq.RetryMax, 0, logger)

	snapshotStorage, err := newSnapshotStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	itemRepo := db.NewItemRepository(database, logger)

	deps.inventoryService = services.NewInventoryService(itemRepo, publisher, logger)
	snapshotService := services.NewSnapshotService(itemRepo, snapshotStorage, cfg.AWS.SnapshotPrefix, logger)

	deps.inventoryHandler = handlers.NewInventoryHandler(deps.inventoryService, idempotency, cfg.Redis.IdempotencyTTL, logger)
	deps.exportHandler = handlers.NewExportHandler(snapshotService, deps.redisCache, cfg.Redis.ExportCacheTTL, logger)
	deps.healthHandler = handlers.NewHealthHandler(database, deps.redisCache, deps.asynqInspector, cfg, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// newSnapshotStorage picks local disk when SNAPSHOT_DIR is set, S3 otherwise
func newSnapshotStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.SnapshotStorage, error) {
	if cfg.AWS.SnapshotDir != "" {
		return storage.NewLocalStorage(cfg.AWS.SnapshotDir, logger), nil
	}

	s3Storage, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot storage: %w", err)
	}
	return s3Storage, nil
}

func setupHTTPServer(ctx context.Context, cfg *config.Config, deps *dependencies, appLogger *logger.Logger) *http.Server {
	mux := http.NewServeMux()

	deps.healthHandler.RegisterRoutes(mux)
	deps.inventoryHandler.RegisterRoutes(mux)
	deps.exportHandler.RegisterRoutes(mux)

	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID(cfg.Server.RequestIDHeader),
		middleware.Tracing(mux),
		middleware.Logger(appLogger),
		middleware.Recovery(appLogger.Logger),
	}

	if cfg.Server.RateLimitRequests > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRequests, cfg.Server.RateLimitDuration, cfg.Server.RateLimitBurst)
		go limiter.Cleanup(ctx)
		middlewares = append(middlewares, limiter.Middleware)
	}

	if len(cfg.Server.AllowedOrigins) > 0 {
		middlewares = append(middlewares, middleware.CORS(cfg.Server.AllowedOrigins))
	}

	if cfg.Server.SecureHeaders {
		middlewares = append(middlewares, middleware.SecureHeaders)
	}

	if cfg.Server.RequestTimeout > 0 {
		middlewares = append(middlewares, middleware.Timeout(cfg.Server.RequestTimeout))
	}

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, middlewares...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(appLogger.Handler(), slog.LevelError),
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")
	return db.RunMigrationsWithRetry(ctx, migrationConfig(cfg), logger, 3)
}
