// test/helpers/test_helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-service/internal/adapters/db"
	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/pkg/config"
	"github.com/ammerola/inventory-service/migrations"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_inventory",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_inventory",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for database to be ready
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
		Source:     migrations.FS,
		TableName:  "schema_migrations",
		SchemaName: "public",
	}

	err = db.RunMigrationsWithRetry(context.Background(), migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "inventory-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Server: config.ServerConfig{
			Host:              "localhost",
			Port:              "8080",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			RequestTimeout:    5 * time.Second,
			AllowedOrigins:    []string{"*"},
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			RateLimitBurst:    20,
			SecureHeaders:     true,
			RequestIDHeader:   "X-Request-ID",
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_inventory",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:           "localhost",
			Port:           "6379",
			PoolSize:       10,
			IdempotencyTTL: time.Hour,
		},
		Asynq: config.AsynqConfig{
			Concurrency: 2,
			Queues:      map[string]int{"critical": 6, "default": 3, "low": 1},
			RetryMax:    3,
		},
		AWS: config.AWSConfig{
			Region:         "us-east-1",
			S3Bucket:       "inventory-test",
			SnapshotPrefix: "snapshots",
		},
		Telemetry: config.TelemetryConfig{SampleRatio: 1},
		Secrets:   config.SecretsConfig{Provider: "env"},
	}
}

// NewItem builds a persisted-looking item
func NewItem(id int64, itemCode string, quantity int) *domain.Item {
	now := time.Now().UTC()
	return &domain.Item{
		ID:        id,
		ItemCode:  itemCode,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewItemRequest builds a create request
func NewItemRequest(itemCode string, quantity int) domain.ItemRequest {
	return domain.ItemRequest{ItemCode: itemCode, Quantity: &quantity}
}

// CreateTestItems creates count items with codes TEST-001... and quantities 0..count-1
func CreateTestItems(count int) []domain.Item {
	items := make([]domain.Item, count)
	for i := 0; i < count; i++ {
		items[i] = *NewItem(int64(i+1), fmt.Sprintf("TEST-%03d", i+1), i)
	}
	return items
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	_, err := db.Exec(context.Background(), "TRUNCATE TABLE items RESTART IDENTITY CASCADE")
	require.NoError(t, err, "Failed to truncate items")
}

// SeedTestData inserts items directly, bypassing the repository
func SeedTestData(t *testing.T, db *pgxpool.Pool, items []domain.Item) {
	t.Helper()

	ctx := context.Background()
	for _, item := range items {
		_, err := db.Exec(ctx,
			`INSERT INTO items (item_code, quantity) VALUES ($1, $2)`,
			item.ItemCode, item.Quantity)
		require.NoError(t, err, "Failed to seed item %s", item.ItemCode)
	}
}
