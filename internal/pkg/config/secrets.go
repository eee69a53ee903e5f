// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Secret keys understood by LoadSecrets
const (
	SecretDatabasePassword = "DB_PASSWORD"
	SecretRedisPassword    = "REDIS_PASSWORD"
)

// SecretsManager resolves credentials by key
type SecretsManager interface {
	GetSecret(ctx context.Context, key string) (string, error)
	GetSecrets(ctx context.Context, keys []string) (map[string]string, error)
	RefreshSecrets(ctx context.Context) error
}

// secretsAPI is the part of the Secrets Manager client in use
type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager implements AWS Secrets Manager integration. The secret
// value is a flat JSON object of key to string.
type AWSSecretsManager struct {
	client     secretsAPI
	secretName string
	cache      map[string]string
	cacheMu    sync.RWMutex
	lastFetch  time.Time
	ttl        time.Duration
	logger     *slog.Logger
}

// NewAWSSecretsManager creates a new AWS Secrets Manager client
func NewAWSSecretsManager(ctx context.Context, region, secretName string, ttl time.Duration, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newAWSSecretsManager(secretsmanager.NewFromConfig(cfg), secretName, ttl, logger), nil
}

func newAWSSecretsManager(client secretsAPI, secretName string, ttl time.Duration, logger *slog.Logger) *AWSSecretsManager {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AWSSecretsManager{
		client:     client,
		secretName: secretName,
		cache:      make(map[string]string),
		ttl:        ttl,
		logger:     logger,
	}
}

// GetSecret retrieves a single secret
func (sm *AWSSecretsManager) GetSecret(ctx context.Context, key string) (string, error) {
	secrets, err := sm.GetSecrets(ctx, []string{key})
	if err != nil {
		return "", err
	}

	val, ok := secrets[key]
	if !ok {
		return "", fmt.Errorf("secret key %s not found", key)
	}

	return val, nil
}

// GetSecrets retrieves multiple secrets
func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	sm.cacheMu.RLock()
	fresh := time.Since(sm.lastFetch) < sm.ttl && len(sm.cache) > 0
	if fresh {
		cached := make(map[string]string, len(keys))
		for _, key := range keys {
			if val, ok := sm.cache[key]; ok {
				cached[key] = val
			}
		}
		sm.cacheMu.RUnlock()

		if len(cached) == len(keys) {
			sm.logger.Debug("returning cached secrets")
			return cached, nil
		}
	} else {
		sm.cacheMu.RUnlock()
	}

	sm.logger.Info("fetching secrets from AWS Secrets Manager",
		slog.String("secret_name", sm.secretName))

	result, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(sm.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret value: %w", err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", sm.secretName)
	}

	var secretData map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &secretData); err != nil {
		return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
	}

	sm.cacheMu.Lock()
	sm.cache = secretData
	sm.lastFetch = time.Now()
	sm.cacheMu.Unlock()

	filtered := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := secretData[key]; ok {
			filtered[key] = val
		} else {
			sm.logger.Warn("secret key not found in AWS Secrets Manager",
				slog.String("key", key))
		}
	}

	return filtered, nil
}

// RefreshSecrets drops the cache and refetches
func (sm *AWSSecretsManager) RefreshSecrets(ctx context.Context) error {
	sm.cacheMu.Lock()
	sm.cache = make(map[string]string)
	sm.lastFetch = time.Time{}
	sm.cacheMu.Unlock()

	_, err := sm.GetSecrets(ctx, []string{})
	return err
}

// EnvSecretsManager implements secrets management using environment variables
type EnvSecretsManager struct{}

// NewEnvSecretsManager creates a new environment-based secrets manager
func NewEnvSecretsManager() *EnvSecretsManager {
	return &EnvSecretsManager{}
}

// GetSecret retrieves a secret from environment variables
func (em *EnvSecretsManager) GetSecret(ctx context.Context, key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("environment variable %s not set", key)
	}
	return val, nil
}

// GetSecrets retrieves multiple secrets from environment variables
func (em *EnvSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	secrets := make(map[string]string)
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			secrets[key] = val
		}
	}
	return secrets, nil
}

// RefreshSecrets is a no-op for environment variables
func (em *EnvSecretsManager) RefreshSecrets(ctx context.Context) error {
	return nil
}

// NewSecretsManager returns the manager selected by cfg.Secrets.Provider
func NewSecretsManager(ctx context.Context, cfg *Config, logger *slog.Logger) (SecretsManager, error) {
	switch cfg.Secrets.Provider {
	case "aws":
		return NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.Secrets.SecretID, cfg.Secrets.CacheTTL, logger)
	case "env", "":
		return NewEnvSecretsManager(), nil
	default:
		return nil, fmt.Errorf("unknown secrets provider %q", cfg.Secrets.Provider)
	}
}

// LoadSecrets overrides the credentials in cfg with the values held by sm.
// Keys missing from sm leave the configured values untouched.
func LoadSecrets(ctx context.Context, cfg *Config, sm SecretsManager) error {
	secrets, err := sm.GetSecrets(ctx, []string{SecretDatabasePassword, SecretRedisPassword})
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if v, ok := secrets[SecretDatabasePassword]; ok {
		cfg.Database.Password = v
	}
	if v, ok := secrets[SecretRedisPassword]; ok {
		cfg.Redis.Password = v
	}

	return nil
}
