// Package config loads the service configuration from an optional TOML file
// overlaid with environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/multierr"
)

// Storage backends.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal"}

// Config holds every runtime setting. Environment variables win over the
// TOML file, which wins over the defaults.
type Config struct {
	Addr   string `toml:"addr" env:"ADDR, overwrite, default=:8080"`
	WebDir string `toml:"web_dir" env:"WEB_DIR, overwrite, default=web"`

	Storage     string `toml:"storage" env:"STORAGE, overwrite, default=sqlite"`
	DatabaseURL string `toml:"database_url" env:"DATABASE_URL, overwrite"`
	SQLitePath  string `toml:"sqlite_path" env:"SQLITE_PATH, overwrite, default=data/weightquest.db"`

	AuthDisabled bool `toml:"auth_disabled" env:"AUTH_DISABLED, overwrite"`
	DevMode      bool `toml:"dev_mode" env:"DEV_MODE, overwrite"`

	// logging
	Environment   string `toml:"environment" env:"ENVIRONMENT, overwrite, default=production"`
	LogLevel      string `toml:"log_level" env:"LOG_LEVEL, overwrite, default=info"`
	LogsPath      string `toml:"logs_path" env:"LOGS_PATH, overwrite"`
	LogToStdout   bool   `toml:"log_to_stdout" env:"LOG_TO_STDOUT, overwrite"`
	LogFormatJSON bool   `toml:"log_format_json" env:"LOG_FORMAT_JSON, overwrite"`
	SentryEnabled bool   `toml:"sentry_enabled" env:"SENTRY_ENABLED, overwrite"`
	SentryDSN     string `toml:"sentry_dsn" env:"SENTRY_DSN, overwrite"`

	// oidc
	OIDCIssuer       string `toml:"oidc_issuer" env:"OIDC_ISSUER, overwrite"`
	OIDCClientID     string `toml:"oidc_client_id" env:"OIDC_CLIENT_ID, overwrite"`
	OIDCClientSecret string `toml:"oidc_client_secret" env:"OIDC_CLIENT_SECRET, overwrite"`
	OIDCRedirectURL  string `toml:"oidc_redirect_url" env:"OIDC_REDIRECT_URL, overwrite"`

	NotifyURLs     []string `toml:"notify_urls" env:"NOTIFY_URLS, overwrite"`
	MetricsEnabled bool     `toml:"metrics_enabled" env:"METRICS_ENABLED, overwrite"`
}

// Load reads path when it is non-empty and exists, then applies the
// environment and validates the result.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OIDCEnabled reports whether single sign-on is configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	switch c.Storage {
	case StorageSQLite:
		if c.SQLitePath == "" {
			err = multierr.Append(err, errors.New("SQLITE_PATH is required for sqlite storage"))
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			err = multierr.Append(err, errors.New("DATABASE_URL is required for postgres storage"))
		}
	case StorageMemory:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown storage %q", c.Storage))
	}

	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		err = multierr.Append(err, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.SentryEnabled && c.SentryDSN == "" {
		err = multierr.Append(err, errors.New("SENTRY_DSN is required when sentry is enabled"))
	}

	oidcSet := []string{c.OIDCIssuer, c.OIDCClientID, c.OIDCRedirectURL}
	if slices.ContainsFunc(oidcSet, isSet) && !(isSet(c.OIDCIssuer) && isSet(c.OIDCClientID) && isSet(c.OIDCRedirectURL)) {
		err = multierr.Append(err, errors.New("OIDC_ISSUER, OIDC_CLIENT_ID and OIDC_REDIRECT_URL must be set together"))
	}
	return err
}

func isSet(s string) bool { return s != "" }
