// internal/pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequiredConfig is returned when a mandatory setting is empty
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Asynq     AsynqConfig
	AWS       AWSConfig
	Telemetry TelemetryConfig
	Secrets   SecretsConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host              string
	Port              string `required:"true"`
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestTimeout    time.Duration
	MaxHeaderBytes    int
	GracefulTimeout   time.Duration
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitDuration time.Duration
	RateLimitBurst    int
	SecureHeaders     bool
	RequestIDHeader   string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string
	User               string
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
	MigrationPath      string
	AutoMigrate        bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	PoolSize       int
	MinIdleConns   int
	MaxRetries     int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdempotencyTTL time.Duration
	ExportCacheTTL time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
	SnapshotCron    string
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
	SnapshotPrefix  string
	SnapshotDir     string // Local disk instead of S3 when set
}

// TelemetryConfig holds OpenTelemetry exporter configuration
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// SecretsConfig selects where credentials come from
type SecretsConfig struct {
	Provider string // env, aws
	SecretID string
	CacheTTL time.Duration
}

// vp reads environment variables and, when CONFIG_FILE is set, a config file
var vp = newViper()

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load loads configuration from environment variables
func Load(logger *slog.Logger) (*Config, error) {
	env := getEnv("APP_ENV", "development")

	// Load .env file in development
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	if file := getEnv("CONFIG_FILE", ""); file != "" {
		vp.SetConfigFile(file)
		if err := vp.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		logger.Info("config file loaded", slog.String("file", file))
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "inventory-service"),
			Environment: env,
			Version:     getEnv("APP_VERSION", "dev"),
			LogLevel:    getEnv("LOG_LEVEL", "debug"),
			LogFormat:   getEnv("LOG_FORMAT", "json"),
			Debug:       getBoolEnv("APP_DEBUG", env == "development"),
		},
		Server: ServerConfig{
			Host:              getEnv("SERVER_HOST", "0.0.0.0"),
			Port:              getEnv("SERVER_PORT", "8080"),
			ReadTimeout:       getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:       getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout:    getDurationEnv("SERVER_REQUEST_TIMEOUT", 10*time.Second),
			MaxHeaderBytes:    getIntEnv("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			GracefulTimeout:   getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			AllowedOrigins:    getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: getDurationEnv("RATE_LIMIT_DURATION", time.Minute),
			RateLimitBurst:    getIntEnv("RATE_LIMIT_BURST", 20),
			SecureHeaders:     getBoolEnv("SECURE_HEADERS", true),
			RequestIDHeader:   getEnv("REQUEST_ID_HEADER", "X-Request-ID"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", "inventory"),
			Password:           getEnv("DB_PASSWORD", "inventory"),
			Name:               getEnv("DB_NAME", "inventory"),
			SSLMode:            getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(getIntEnv("DB_MAX_CONNECTIONS", 25)),
			MinConnections:     int32(getIntEnv("DB_MIN_CONNECTIONS", 5)),
			MaxConnLifetime:    getDurationEnv("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    getDurationEnv("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  getDurationEnv("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
			StatementCacheMode: getEnv("DB_STATEMENT_CACHE_MODE", "describe"),
			EnableQueryLogging: getBoolEnv("DB_QUERY_LOGGING", env == "development"),
			MigrationPath:      getEnv("DB_MIGRATION_PATH", ""),
			AutoMigrate:        getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getIntEnv("REDIS_DB", 0),
			PoolSize:       getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns:   getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			MaxRetries:     getIntEnv("REDIS_MAX_RETRIES", 3),
			DialTimeout:    getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:    getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:   getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			IdempotencyTTL: getDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
			ExportCacheTTL: getDurationEnv("EXPORT_CACHE_TTL", 30*time.Second),
		},
		Asynq: AsynqConfig{
			RedisDB:         getIntEnv("ASYNQ_REDIS_DB", 0),
			Concurrency:     getIntEnv("ASYNQ_CONCURRENCY", 10),
			Queues:          parseQueues(getEnv("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:  getBoolEnv("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:        getIntEnv("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout: getDurationEnv("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
			SnapshotCron:    getEnv("SNAPSHOT_CRON", "0 2 * * *"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "inventory-snapshots"),
			S3Endpoint:      getEnv("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    getBoolEnv("AWS_S3_PATH_STYLE", env == "development"),
			SnapshotPrefix:  getEnv("SNAPSHOT_PREFIX", "snapshots"),
			SnapshotDir:     getEnv("SNAPSHOT_DIR", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getBoolEnv("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Insecure:    getBoolEnv("OTEL_EXPORTER_OTLP_INSECURE", env != "production"),
			SampleRatio: getFloatEnv("OTEL_SAMPLE_RATIO", 1.0),
		},
		Secrets: SecretsConfig{
			Provider: getEnv("SECRETS_PROVIDER", "env"),
			SecretID: getEnv("SECRETS_ID", ""),
			CacheTTL: getDurationEnv("SECRETS_CACHE_TTL", 5*time.Minute),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := (&BasicValidator{}).Validate(c); err != nil {
		return err
	}

	if c.IsProduction() {
		if err := (&ProductionValidator{}).Validate(c); err != nil {
			return err
		}
	}

	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + c.Database.SSLMode,
	}
	return u.String()
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// RedisAddr returns host:port of the Redis server shared by the idempotency
// store and asynq
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := vp.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := vp.GetString(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := vp.GetString(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := vp.GetString(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := vp.GetString(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := vp.GetString(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	pairs := strings.Split(queuesStr, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			name := strings.TrimSpace(parts[0])
			priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err == nil {
				queues[name] = priority
			}
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
