// cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ammerola/inventory-service/internal/adapters/db"
	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/services"
	"github.com/ammerola/inventory-service/internal/pkg/config"
	"github.com/ammerola/inventory-service/internal/pkg/logger"
	"github.com/ammerola/inventory-service/pkg/inventoryclient"
)

// ItemCreator is satisfied by the inventory service and by the HTTP client
type ItemCreator interface {
	AddItem(ctx context.Context, req domain.ItemRequest) (*domain.Item, error)
}

// Summary counts what a seed run did
type Summary struct {
	Created int
	Skipped int
	Failed  map[string]string
}

// Seeder creates items, leaving codes that already exist untouched
type Seeder struct {
	creator ItemCreator
	dryRun  bool
	logger  *slog.Logger
}

func NewSeeder(creator ItemCreator, dryRun bool, logger *slog.Logger) *Seeder {
	return &Seeder{creator: creator, dryRun: dryRun, logger: logger}
}

// Seed creates every request in order. It stops early only when ctx is done.
func (s *Seeder) Seed(ctx context.Context, requests []domain.ItemRequest) Summary {
	summary := Summary{Failed: make(map[string]string)}

	for i, req := range requests {
		if ctx.Err() != nil {
			summary.Failed[req.ItemCode] = ctx.Err().Error()
			break
		}

		fmt.Printf("PROGRESS: %d/%d: %s\n", i+1, len(requests), req.ItemCode)

		if s.dryRun {
			summary.Created++
			continue
		}

		_, err := s.creator.AddItem(ctx, req)
		switch {
		case err == nil:
			summary.Created++
		case errors.Is(err, domain.ErrItemExists):
			s.logger.Info("skipping existing item", slog.String("item_code", req.ItemCode))
			summary.Skipped++
		default:
			s.logger.Error("failed to create item",
				slog.String("item_code", req.ItemCode),
				slog.Any("error", err))
			summary.Failed[req.ItemCode] = err.Error()
		}
	}

	return summary
}

func main() {
	var (
		file     = flag.String("file", "./items.csv", "Seed file (.csv, .json or .xlsx) of itemCode,quantity rows")
		apiURL   = flag.String("api", "", "Seed through a running API instead of the database")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun   = flag.Bool("dry-run", false, "Preview changes without modifying anything")
	)
	flag.Parse()

	slogger := logger.SetupLogger(&logger.LogConfig{Level: *logLevel, Format: "json"}).Logger

	requests, err := LoadRecords(*file)
	if err != nil {
		slogger.Error("failed to load seed file", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()

	creator, cleanup, err := newCreator(ctx, *apiURL, *dryRun, slogger)
	if err != nil {
		slogger.Error("failed to set up seeding target", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	summary := NewSeeder(creator, *dryRun, slogger).Seed(ctx, requests)

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING OPERATION SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Items in file: %d\n", len(requests))
	fmt.Printf("Created:       %d\n", summary.Created)
	fmt.Printf("Skipped:       %d\n", summary.Skipped)
	if len(summary.Failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(summary.Failed))
		for code, reason := range summary.Failed {
			fmt.Printf("  - %s: %s\n", code, reason)
		}
	}

	slogger.Info("seed operation completed",
		slog.Int("created", summary.Created),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", len(summary.Failed)))

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes were made")
	}
	if len(summary.Failed) > 0 {
		os.Exit(1)
	}
}

// newCreator returns the API client when apiURL is set, otherwise the
// inventory service over a direct database connection
func newCreator(ctx context.Context, apiURL string, dryRun bool, logger *slog.Logger) (ItemCreator, func(), error) {
	noop := func() {}

	if apiURL != "" {
		return inventoryclient.New(inventoryclient.Config{BaseURL: apiURL}), noop, nil
	}
	if dryRun {
		return nil, noop, nil
	}

	cfg, err := loadConfig(ctx, config.NewSecretsManager, logger)
	if err != nil {
		return nil, noop, err
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     2,
		MinConnections:     1,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
	}, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
	}

	// No publisher: seeding is not a stock movement
	service := services.NewInventoryService(db.NewItemRepository(database, logger), nil, logger)
	return service, database.Close, nil
}

type secretsFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (config.SecretsManager, error)

// loadConfig reads the environment and applies the configured secrets
// provider, the same way cmd/api does
func loadConfig(ctx context.Context, newSecrets secretsFactory, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	secrets, err := newSecrets(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets manager: %w", err)
	}
	if err := config.LoadSecrets(ctx, cfg, secrets); err != nil {
		return nil, err
	}

	return cfg, nil
}
