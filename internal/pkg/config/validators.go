// internal/pkg/config/validators.go
package config

import (
	"fmt"
	"reflect"
	"strings"
)

// BasicValidator performs basic configuration validation
type BasicValidator struct{}

// Validate performs basic validation
func (v *BasicValidator) Validate(cfg *Config) error {
	// Validate required fields using reflection
	if err := validateRequiredFields(cfg); err != nil {
		return err
	}

	if cfg.Database.MaxConnections < cfg.Database.MinConnections {
		return fmt.Errorf("database max_connections must be >= min_connections")
	}

	if cfg.Redis.PoolSize <= 0 {
		return fmt.Errorf("redis pool_size must be positive")
	}

	if cfg.Server.RateLimitRequests <= 0 {
		return fmt.Errorf("rate_limit_requests must be positive")
	}

	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0, 1]")
	}

	switch cfg.Secrets.Provider {
	case "env":
	case "aws":
		if cfg.Secrets.SecretID == "" {
			return fmt.Errorf("%w: secrets id for the aws provider", ErrMissingRequiredConfig)
		}
	default:
		return fmt.Errorf("unknown secrets provider %q", cfg.Secrets.Provider)
	}

	return nil
}

// ProductionValidator performs strict validation for production environments
type ProductionValidator struct{}

// Validate performs production-specific validation
func (v *ProductionValidator) Validate(cfg *Config) error {
	if strings.Contains(cfg.Database.Password, "MISSING_") {
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	}

	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("database SSL must be enabled in production")
	}

	if !cfg.Server.SecureHeaders {
		return fmt.Errorf("secure headers must be enabled in production")
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}

	return nil
}

// validateRequiredFields uses reflection to check required struct tags
func validateRequiredFields(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	return validateStruct(v, "")
}

func validateStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		fieldName := fieldType.Name

		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		if required := fieldType.Tag.Get("required"); required == "true" {
			if isZeroValue(field) {
				return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, fieldName)
			}
		}

		// Recursively check nested structs
		if field.Kind() == reflect.Struct {
			if err := validateStruct(field, fieldName); err != nil {
				return err
			}
		}
	}

	return nil
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == "" || strings.HasPrefix(v.String(), "MISSING_")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	default:
		return false
	}
}
