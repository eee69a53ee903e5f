// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-service/internal/adapters/db"
	"github.com/ammerola/inventory-service/internal/adapters/queue"
	"github.com/ammerola/inventory-service/internal/adapters/storage"
	"github.com/ammerola/inventory-service/internal/core/ports"
	"github.com/ammerola/inventory-service/internal/core/services"
	"github.com/ammerola/inventory-service/internal/pkg/config"
	"github.com/ammerola/inventory-service/internal/pkg/logger"
	"github.com/ammerola/inventory-service/internal/workers"
)

func main() {
	bootLogger := logger.SetupLogger(&logger.LogConfig{Level: "info", Format: "json"})

	cfg, err := config.Load(bootLogger.Logger)
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger := logger.SetupLogger(&logger.LogConfig{
		Level:          cfg.App.LogLevel,
		Format:         cfg.App.LogFormat,
		Environment:    cfg.App.Environment,
		ServiceName:    cfg.App.Name + "-worker",
		ServiceVersion: cfg.App.Version,
	}).Logger

	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.RedisAddr()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, slogger); err != nil {
		slogger.Error("worker stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, slogger *slog.Logger) error {
	secrets, err := config.NewSecretsManager(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to create secrets manager: %w", err)
	}
	if err := config.LoadSecrets(ctx, cfg, secrets); err != nil {
		return err
	}

	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	snapshotStorage, err := initStorage(ctx, cfg, slogger)
	if err != nil {
		return err
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Asynq.RedisDB,
	}

	client := asynq.NewClient(redisOpt)
	defer client.Close()

	publisher := queue.NewPublisher(client, cfg.Asynq.RetryMax, 0, slogger)
	itemRepo := db.NewItemRepository(database, slogger)
	snapshotService := services.NewSnapshotService(itemRepo, snapshotStorage, cfg.AWS.SnapshotPrefix, slogger)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    workers.ErrorHandler(slogger),
		RetryDelayFunc:  workers.RetryDelay,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck(slogger),
		Logger:          workers.NewAsynqLogger(slogger),
	})

	mux := asynq.NewServeMux()
	workers.NewStockProcessor(publisher, slogger).Register(mux)
	workers.NewSnapshotProcessor(snapshotService, slogger).Register(mux)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: workers.NewAsynqLogger(slogger),
	})

	if cfg.Asynq.SnapshotCron != "" {
		task, err := queue.NewSnapshotTask("scheduled")
		if err != nil {
			return err
		}
		entryID, err := scheduler.Register(cfg.Asynq.SnapshotCron, task,
			asynq.Queue(queue.QueueLow),
			asynq.MaxRetry(cfg.Asynq.RetryMax))
		if err != nil {
			return fmt.Errorf("failed to schedule snapshot %q: %w", cfg.Asynq.SnapshotCron, err)
		}
		slogger.Info("snapshot scheduled",
			slog.String("cron", cfg.Asynq.SnapshotCron),
			slog.String("entry_id", entryID))
	}

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	<-ctx.Done()
	slogger.Info("shutdown signal received")

	scheduler.Shutdown()
	srv.Shutdown()

	slogger.Info("worker shutdown complete")
	return nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, logger)
}

func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.SnapshotStorage, error) {
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

func healthCheck(logger *slog.Logger) func(error) {
	return func(err error) {
		if err != nil {
			logger.Error("worker health check failed", slog.Any("error", err))
		}
	}
}
