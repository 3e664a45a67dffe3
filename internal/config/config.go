// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported image backends.
const (
	ImageBackendLocal = "local"
	ImageBackendS3    = "s3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver string `env:"STUDIO_DB_DRIVER" envDefault:"sqlite"`
	DBPath   string `env:"STUDIO_DB_PATH" envDefault:"./data/studio.db"`
	DBDSN    string `env:"STUDIO_DB_DSN"`

	ServerHost     string   `env:"STUDIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort     int      `env:"STUDIO_SERVER_PORT" envDefault:"8080"`
	Env            string   `env:"STUDIO_ENV" envDefault:"development"`
	LogLevel       string   `env:"STUDIO_LOG_LEVEL" envDefault:"info"`
	TrustedOrigins []string `env:"STUDIO_TRUSTED_ORIGINS" envSeparator:","`

	// Admin authentication
	JWTSecret         string        `env:"STUDIO_JWT_SECRET,required"`
	AdminEmail        string        `env:"STUDIO_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPasswordHash string        `env:"STUDIO_ADMIN_PASSWORD_HASH,required"`
	TokenTTL          time.Duration `env:"STUDIO_TOKEN_TTL" envDefault:"12h"`

	// Change feed fan-out across processes
	RedisURL    string `env:"STUDIO_REDIS_URL"`
	RedisPrefix string `env:"STUDIO_REDIS_PREFIX" envDefault:"studio:"`

	// Email relay
	RelayURL     string        `env:"STUDIO_RELAY_URL"`
	RelaySecret  string        `env:"STUDIO_RELAY_SECRET"`
	RelayTimeout time.Duration `env:"STUDIO_RELAY_TIMEOUT" envDefault:"10s"`
	RelayWorkers int           `env:"STUDIO_RELAY_WORKERS" envDefault:"2"`

	// Image host
	ImageBackend      string `env:"STUDIO_IMAGE_BACKEND" envDefault:"local"`
	UploadsDir        string `env:"STUDIO_UPLOADS_DIR" envDefault:"./uploads"`
	UploadsURL        string `env:"STUDIO_UPLOADS_URL" envDefault:"/uploads"`
	ImageMaxDimension int    `env:"STUDIO_IMAGE_MAX_DIMENSION" envDefault:"1920"`
	S3Endpoint        string `env:"STUDIO_S3_ENDPOINT"`
	S3AccessKey       string `env:"STUDIO_S3_ACCESS_KEY"`
	S3SecretKey       string `env:"STUDIO_S3_SECRET_KEY"`
	S3Bucket          string `env:"STUDIO_S3_BUCKET" envDefault:"studio"`
	S3UseSSL          bool   `env:"STUDIO_S3_USE_SSL" envDefault:"true"`
	S3PublicURL       string `env:"STUDIO_S3_PUBLIC_URL"` // Optional CDN/base URL for objects

	// GeoIP configuration
	GeoIPDBPath string `env:"STUDIO_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Lead alerts
	AlertWindow time.Duration `env:"STUDIO_ALERT_WINDOW" envDefault:"30s"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if cross-process change fan-out through Redis is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// RelayEnabled returns true if an email relay endpoint is configured.
func (c Config) RelayEnabled() bool {
	return c.RelayURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// StoreDSN returns the data source name for the configured driver.
func (c Config) StoreDSN() string {
	if c.DBDriver == DriverPostgres {
		return c.DBDSN
	}
	return c.DBPath
}

// MinJWTSecretLength is the minimum required length for the token signing secret.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("STUDIO_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("STUDIO_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(c.JWTSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.JWTSecret == weak {
			return fmt.Errorf("STUDIO_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("STUDIO_DB_DSN is required when STUDIO_DB_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("STUDIO_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	}

	switch c.ImageBackend {
	case ImageBackendLocal:
	case ImageBackendS3:
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("STUDIO_S3_ENDPOINT, STUDIO_S3_ACCESS_KEY and STUDIO_S3_SECRET_KEY are required for the s3 image backend")
		}
	default:
		return fmt.Errorf("STUDIO_IMAGE_BACKEND must be %q or %q, got %q", ImageBackendLocal, ImageBackendS3, c.ImageBackend)
	}

	if c.RelayTimeout <= 0 {
		return fmt.Errorf("STUDIO_RELAY_TIMEOUT must be positive")
	}
	if c.AlertWindow <= 0 {
		return fmt.Errorf("STUDIO_ALERT_WINDOW must be positive")
	}
	if c.RelayWorkers < 1 {
		c.RelayWorkers = 1
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
