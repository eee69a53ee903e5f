// internal/adapters/db/migrations.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// MigrationConfig holds migration configuration. When Source is set the
// embedded files are used and SourcePath is ignored.
type MigrationConfig struct {
	DatabaseURL      string
	SourcePath       string
	Source           fs.FS
	TableName        string
	SchemaName       string
	ForceDirty       bool
	StatementTimeout time.Duration
}

// Migrator handles database migrations
type Migrator struct {
	migrate *migrate.Migrate
	config  *MigrationConfig
	logger  *slog.Logger
	db      *sql.DB
}

// MigrationStatus represents the current status of migrations
type MigrationStatus struct {
	CurrentVersion uint               `json:"current_version"`
	IsDirty        bool               `json:"is_dirty"`
	Applied        []AppliedMigration `json:"applied"`
}

// AppliedMigration represents an applied migration
type AppliedMigration struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// NewMigrator creates a new migrator instance
func NewMigrator(config *MigrationConfig, logger *slog.Logger) (*Migrator, error) {
	if config == nil {
		return nil, fmt.Errorf("migration config is required")
	}

	if config.TableName == "" {
		config.TableName = "schema_migrations"
	}
	if config.SchemaName == "" {
		config.SchemaName = "public"
	}
	if config.StatementTimeout == 0 {
		config.StatementTimeout = time.Minute * 10
	}

	db, err := sql.Open("pgx", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable:  config.TableName,
		SchemaName:       config.SchemaName,
		StatementTimeout: config.StatementTimeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	var m *migrate.Migrate
	if config.Source != nil {
		var sourceDriver source.Driver
		sourceDriver, err = iofs.New(config.Source, ".")
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create embedded source driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	} else {
		m, err = migrate.NewWithDatabaseInstance("file://"+config.SourcePath, "postgres", driver)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return &Migrator{
		migrate: m,
		config:  config,
		logger:  logger,
		db:      db,
	}, nil
}

// Up runs all available migrations
func (m *Migrator) Up(ctx context.Context) error {
	m.logger.InfoContext(ctx, "running migrations up")

	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if dirty {
		if !m.config.ForceDirty {
			return fmt.Errorf("database is in dirty state at version %d", version)
		}
		m.logger.WarnContext(ctx, "forcing dirty migration",
			slog.Uint64("version", uint64(version)))
		if err := m.migrate.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.InfoContext(ctx, "no migrations to run")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.migrate.Version()
	if err != nil {
		m.logger.WarnContext(ctx, "failed to get new version", slog.Any("error", err))
	} else {
		m.logger.InfoContext(ctx, "migrations completed",
			slog.Uint64("version", uint64(newVersion)))
	}

	return nil
}

// Down rolls back the last migration
func (m *Migrator) Down(ctx context.Context) error {
	m.logger.InfoContext(ctx, "rolling back last migration")

	if err := m.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.InfoContext(ctx, "no migrations to rollback")
			return nil
		}
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	return nil
}

// Force sets the version without running migrations
func (m *Migrator) Force(ctx context.Context, version int) error {
	m.logger.WarnContext(ctx, "forcing migration version", slog.Int("version", version))

	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version: %w", err)
	}
	return nil
}

// Status returns the version and the rows of the migrations table
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	applied, err := readAppliedMigrations(ctx, m.db, m.config.SchemaName, m.config.TableName)
	if err != nil {
		return nil, err
	}

	return &MigrationStatus{
		CurrentVersion: version,
		IsDirty:        dirty,
		Applied:        applied,
	}, nil
}

func readAppliedMigrations(ctx context.Context, db *sql.DB, schema, table string) ([]AppliedMigration, error) {
	query := fmt.Sprintf(`SELECT version, dirty FROM %s.%s ORDER BY version ASC`, schema, table)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make([]AppliedMigration, 0)
	for rows.Next() {
		var am AppliedMigration
		if err := rows.Scan(&am.Version, &am.Dirty); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		applied = append(applied, am)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migrations: %w", err)
	}

	return applied, nil
}

// Close closes the migrator and releases resources
func (m *Migrator) Close() error {
	if m.migrate != nil {
		sourceErr, dbErr := m.migrate.Close()
		if sourceErr != nil || dbErr != nil {
			return fmt.Errorf("failed to close migrator - source: %v, db: %v", sourceErr, dbErr)
		}
	}

	if m.db != nil {
		// migrate.Close already closed the shared handle through the driver
		_ = m.db.Close()
	}

	return nil
}

// RunMigrationsWithRetry runs migrations with linear backoff
func RunMigrationsWithRetry(ctx context.Context, config *MigrationConfig, logger *slog.Logger, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			wait := time.Duration(i) * 2 * time.Second
			logger.InfoContext(ctx, "retrying migration",
				slog.Int("attempt", i+1),
				slog.Duration("wait", wait))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		migrator, err := NewMigrator(config, logger)
		if err != nil {
			lastErr = fmt.Errorf("failed to create migrator: %w", err)
			logger.ErrorContext(ctx, "failed to create migrator",
				slog.Any("error", err),
				slog.Int("attempt", i+1))
			continue
		}

		err = migrator.Up(ctx)
		closeErr := migrator.Close()
		if closeErr != nil {
			logger.ErrorContext(ctx, "failed to close migrator", slog.Any("error", closeErr))
		}

		if err == nil {
			return nil
		}

		lastErr = err
		logger.ErrorContext(ctx, "migration failed",
			slog.Any("error", err),
			slog.Int("attempt", i+1))
	}

	return fmt.Errorf("migrations failed after %d attempts: %w", maxRetries, lastErr)
}
