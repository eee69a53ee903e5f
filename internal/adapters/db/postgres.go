// internal/adapters/db/postgres.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
)

// Config holds database configuration
type Config struct {
	Host               string
	Port               string
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
}

// DefaultConfig returns default database configuration
func DefaultConfig() *Config {
	return &Config{
		Host:               "localhost",
		Port:               "5432",
		User:               "inventory",
		Password:           "inventory",
		Database:           "inventory",
		SSLMode:            "disable",
		MaxConnections:     25,
		MinConnections:     5,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementCacheMode: "describe",
		EnableQueryLogging: false,
	}
}

// Database wraps pgxpool with additional functionality
type Database struct {
	pool   *pgxpool.Pool
	config *Config
	logger *slog.Logger
}

// querier is the subset shared by the pool and a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var (
	_ querier = (*Database)(nil)
	_ querier = (pgx.Tx)(nil)
)

// NewDatabase creates a new database connection pool
func NewDatabase(ctx context.Context, config *Config, logger *slog.Logger) (*Database, error) {
	if config == nil {
		config = DefaultConfig()
	}

	poolConfig, err := buildPoolConfig(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build pool config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &Database{
		pool:   pool,
		config: config,
		logger: logger,
	}

	logger.Info("database connection established",
		slog.String("host", config.Host),
		slog.String("database", config.Database),
		slog.Int("max_connections", int(config.MaxConnections)),
	)

	return db, nil
}

// buildPoolConfig creates pgxpool configuration
func buildPoolConfig(config *Config, logger *slog.Logger) (*pgxpool.Config, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		config.Host, config.Port, config.User, config.Password,
		config.Database, config.SSLMode, int(config.ConnectTimeout.Seconds()),
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// Connection pool settings
	poolConfig.MaxConns = config.MaxConnections
	poolConfig.MinConns = config.MinConnections
	poolConfig.MaxConnLifetime = config.MaxConnLifetime
	poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = config.HealthCheckPeriod

	poolConfig.ConnConfig.DefaultQueryExecMode = queryExecMode(config.StatementCacheMode)
	poolConfig.ConnConfig.StatementCacheCapacity = 512

	if config.EnableQueryLogging {
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   newPgxLogger(logger),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	return poolConfig, nil
}

// queryExecMode maps the configured cache mode. "exec" suits transaction
// poolers that cannot hold prepared statements.
func queryExecMode(mode string) pgx.QueryExecMode {
	switch mode {
	case "statement":
		return pgx.QueryExecModeCacheStatement
	case "exec":
		return pgx.QueryExecModeExec
	case "simple":
		return pgx.QueryExecModeSimpleProtocol
	default:
		return pgx.QueryExecModeCacheDescribe
	}
}

// Pool returns the underlying pgxpool.Pool
func (db *Database) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes all database connections
func (db *Database) Close() {
	db.pool.Close()
	db.logger.Info("database connections closed")
}

// Ping verifies database connectivity
func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Health returns database health information
func (db *Database) Health(ctx context.Context) map[string]any {
	stats := db.pool.Stat()
	health := map[string]any{
		"status":               "healthy",
		"total_connections":    stats.TotalConns(),
		"idle_connections":     stats.IdleConns(),
		"acquired_connections": stats.AcquiredConns(),
		"max_connections":      stats.MaxConns(),
		"new_connections":      stats.NewConnsCount(),
		"max_lifetime_closed":  stats.MaxLifetimeDestroyCount(),
		"empty_acquires":       stats.EmptyAcquireCount(),
	}

	// Try a simple query
	ctx, cancel := context.WithTimeout(ctx, time.Second*2)
	defer cancel()

	var result int
	err := db.pool.QueryRow(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}

	return health
}

// Transaction executes a function within a database transaction
func (db *Database) Transaction(ctx context.Context, fn func(pgx.Tx) error) error {
	return db.TransactionWithOptions(ctx, pgx.TxOptions{}, fn)
}

// TransactionWithOptions executes a function within a transaction with custom options
func (db *Database) TransactionWithOptions(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Query executes a query that returns rows
func (db *Database) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return db.pool.Query(ctx, sql, args...)
}

// QueryRow executes a query that returns at most one row
func (db *Database) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.pool.QueryRow(ctx, sql, args...)
}

// Exec executes a query that doesn't return rows
func (db *Database) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return db.pool.Exec(ctx, sql, args...)
}

// pgxLogger adapts slog for pgx logging
type pgxLogger struct {
	logger *slog.Logger
}

func newPgxLogger(logger *slog.Logger) *pgxLogger {
	return &pgxLogger{
		logger: logger.With(slog.String("component", "pgx")),
	}
}

func (l *pgxLogger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	attrs := make([]slog.Attr, 0, len(data))
	for k, v := range data {
		attrs = append(attrs, slog.Any(k, v))
	}

	switch level {
	case tracelog.LogLevelError:
		l.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	case tracelog.LogLevelWarn:
		l.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	case tracelog.LogLevelInfo:
		l.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
	default:
		l.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
	}
}
