// cmd/api/migrate.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ammerola/inventory-service/internal/adapters/db"
	"github.com/ammerola/inventory-service/internal/pkg/config"
	"github.com/ammerola/inventory-service/migrations"
)

// migrationRunner is the part of *db.Migrator driven by -migrate
type migrationRunner interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Force(ctx context.Context, version int) error
	Status(ctx context.Context) (*db.MigrationStatus, error)
}

func migrationConfig(cfg *config.Config) *db.MigrationConfig {
	mc := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}
	if cfg.Database.MigrationPath == "" {
		mc.Source = migrations.FS
	}
	return mc
}

// runMigrateCommand runs one of up, down, status or force=N and exits
// without serving
func runMigrateCommand(ctx context.Context, cfg *config.Config, command string, out io.Writer, logger *slog.Logger) error {
	secrets, err := config.NewSecretsManager(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create secrets manager: %w", err)
	}
	if err := config.LoadSecrets(ctx, cfg, secrets); err != nil {
		return err
	}

	migrator, err := db.NewMigrator(migrationConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Error("failed to close migrator", slog.Any("error", err))
		}
	}()

	return dispatchMigration(ctx, migrator, command, out)
}

func dispatchMigration(ctx context.Context, m migrationRunner, command string, out io.Writer) error {
	name, arg, hasArg := strings.Cut(command, "=")

	switch name {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "force":
		if !hasArg {
			return fmt.Errorf("force needs a version, e.g. force=3")
		}
		version, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid force version %q: %w", arg, err)
		}
		return m.Force(ctx, version)
	case "status":
		status, err := m.Status(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	default:
		return fmt.Errorf("unknown migrate command %q: want up, down, status or force=N", command)
	}
}
