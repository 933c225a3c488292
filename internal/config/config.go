// Package config provides configuration loading and validation for the
// API server. It uses koanf to merge environment variables with
// optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// JWT Authentication. The previous secret is optional and accepted
	// during rotation.
	JWTSecret         string `koanf:"jwt_secret"`
	JWTPreviousSecret string `koanf:"jwt_previous_secret"`

	// CORS allowed origins, comma-separated. "*" opens all origins.
	CORSOrigins string `koanf:"cors_origins"`

	// Redis, optional. When set the rate limiter and readiness probe
	// use it.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`

	// R2 (Cloudflare Object Storage), optional. When unset, image
	// uploads are disabled.
	R2BucketName      string `koanf:"r2_bucket_name"`
	R2AccessKeyID     string `koanf:"r2_access_key_id"`
	R2SecretAccessKey string `koanf:"r2_secret_access_key"`
	R2Endpoint        string `koanf:"r2_endpoint"`
	R2PublicBaseURL   string `koanf:"r2_public_base_url"`
	R2MaxUploadSizeMB int    `koanf:"r2_max_upload_size_mb"`

	// Tracing, optional. Exporter is "otlp-grpc", "otlp-http", or
	// empty to disable.
	TracingExporter string  `koanf:"tracing_exporter"`
	TracingEndpoint string  `koanf:"tracing_endpoint"`
	TracingSample   float64 `koanf:"tracing_sample"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL       = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret         = errors.New("JWT_SECRET is required")
	ErrMissingR2BucketName      = errors.New("R2_BUCKET_NAME is required")
	ErrMissingR2AccessKeyID     = errors.New("R2_ACCESS_KEY_ID is required")
	ErrMissingR2SecretAccessKey = errors.New("R2_SECRET_ACCESS_KEY is required")
	ErrMissingR2Endpoint        = errors.New("R2_ENDPOINT is required")
	ErrInvalidPort              = errors.New("PORT must be a valid integer")
)

// Default values for non-secret configuration.
const (
	DefaultPort              = 8080
	DefaultEnv               = "development"
	DefaultCORSOrigins       = "*"
	DefaultR2MaxUploadSizeMB = 5
	DefaultTracingSample     = 0.1
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if
// valid). If a config file path is provided and the file cannot be
// loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// File values load first so env vars can override them.
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	maxUploadSize, uploadSizeErr := getEnvIntOrDefault("R2_MAX_UPLOAD_SIZE_MB", k.Int("r2_max_upload_size_mb"), DefaultR2MaxUploadSizeMB)
	if uploadSizeErr != nil {
		loadErrs = append(loadErrs, uploadSizeErr)
	}

	tracingSample, sampleErr := getEnvFloatOrDefault("TRACING_SAMPLE", k.Float64("tracing_sample"), DefaultTracingSample)
	if sampleErr != nil {
		loadErrs = append(loadErrs, sampleErr)
	}

	cfg := &Config{
		Port:              port,
		Env:               getEnvOrDefault("ENV", k.String("env"), DefaultEnv),
		DatabaseURL:       getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		JWTSecret:         getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTPreviousSecret: getEnvOrKoanf("JWT_PREVIOUS_SECRET", k, "jwt_previous_secret"),
		CORSOrigins:       getEnvOrDefault("CORS_ORIGINS", k.String("cors_origins"), DefaultCORSOrigins),
		RedisAddr:         getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
		RedisPassword:     getEnvOrKoanf("REDIS_PASSWORD", k, "redis_password"),
		R2BucketName:      getEnvOrKoanf("R2_BUCKET_NAME", k, "r2_bucket_name"),
		R2AccessKeyID:     getEnvOrKoanf("R2_ACCESS_KEY_ID", k, "r2_access_key_id"),
		R2SecretAccessKey: getEnvOrKoanf("R2_SECRET_ACCESS_KEY", k, "r2_secret_access_key"),
		R2Endpoint:        getEnvOrKoanf("R2_ENDPOINT", k, "r2_endpoint"),
		R2PublicBaseURL:   getEnvOrKoanf("R2_PUBLIC_BASE_URL", k, "r2_public_base_url"),
		R2MaxUploadSizeMB: maxUploadSize,
		TracingExporter:   getEnvOrKoanf("TRACING_EXPORTER", k, "tracing_exporter"),
		TracingEndpoint:   getEnvOrKoanf("TRACING_ENDPOINT", k, "tracing_endpoint"),
		TracingSample:     tracingSample,
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set,
// otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set,
// otherwise the koanf value, or default. Returns an error if the
// environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidPort)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if
// set, otherwise the koanf value, or default.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}

	// R2 configuration is optional. Only validate fields if any R2
	// value is set.
	if c.R2BucketName != "" || c.R2AccessKeyID != "" || c.R2SecretAccessKey != "" || c.R2Endpoint != "" {
		if c.R2BucketName == "" {
			errs = append(errs, ErrMissingR2BucketName)
		}
		if c.R2AccessKeyID == "" {
			errs = append(errs, ErrMissingR2AccessKeyID)
		}
		if c.R2SecretAccessKey == "" {
			errs = append(errs, ErrMissingR2SecretAccessKey)
		}
		if c.R2Endpoint == "" {
			errs = append(errs, ErrMissingR2Endpoint)
		}
	}

	return errs
}

// UploadsEnabled reports whether object storage is configured.
func (c *Config) UploadsEnabled() bool {
	return c.R2BucketName != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2Endpoint != ""
}

// CORSOriginList splits the configured origins.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LogSummary returns a summary of the configuration suitable for
// logging. All secrets are masked.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                  fmt.Sprintf("%d", c.Port),
		"env":                   c.Env,
		"database_url":          maskDatabaseURL(c.DatabaseURL),
		"jwt_secret":            maskSecret(c.JWTSecret),
		"cors_origins":          c.CORSOrigins,
		"redis_addr":            c.RedisAddr,
		"r2_bucket_name":        c.R2BucketName,
		"r2_access_key_id":      maskSecret(c.R2AccessKeyID),
		"r2_secret_access_key":  maskSecret(c.R2SecretAccessKey),
		"r2_endpoint":           c.R2Endpoint,
		"r2_max_upload_size_mb": fmt.Sprintf("%d", c.R2MaxUploadSizeMB),
		"tracing_exporter":      c.TracingExporter,
		"tracing_endpoint":      c.TracingEndpoint,
	}
}

// maskSecret masks a secret value, showing only the first 4 characters
// followed by ****. Secrets shorter than 8 characters are fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL. Supports both
// postgres:// and postgresql:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
