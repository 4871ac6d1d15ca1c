// Package config loads pggate configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// TransportStdio runs MCP over stdin/stdout.
	TransportStdio = "stdio"
	// TransportHTTP runs MCP over HTTP with SSE tool streaming.
	TransportHTTP = "http"

	defaultListenAddr = ":27750"
	defaultSchema     = "public"
)

// Config holds service runtime configuration. It is constructed once at
// process start; nothing re-reads the environment mid-request.
type Config struct {
	ListenAddr string
	LogLevel   string

	Transport string

	// DatabaseURL is the Postgres connection string (lib/pq form).
	DatabaseURL string

	// AccessLevel is the raw configured level name. It is resolved through
	// policy.ParseAccessLevel at startup; invalid values fall back to
	// readonly with a diagnostic instead of failing.
	AccessLevel string

	// DefaultSchema qualifies bare table references when a call carries no
	// explicit schema.
	DefaultSchema string

	// SessionToken authenticates HTTP tool calls when set.
	SessionToken string

	// AllowCLIConfigToken permits falling back to ~/.pggate/config.yaml
	// auth.token when no session token is configured.
	AllowCLIConfigToken bool
	// CLIConfigPath overrides the CLI config location.
	CLIConfigPath string

	DevMode bool
}

// Load returns configuration parsed from the environment. A .env file in the
// working directory is honored without overriding already-set variables.
func Load() (Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:          envOrDefault("PGGATE_LISTEN_ADDR", defaultListenAddr),
		LogLevel:            strings.ToLower(strings.TrimSpace(envOrDefault("PGGATE_LOG_LEVEL", "info"))),
		Transport:           strings.ToLower(strings.TrimSpace(envOrDefault("PGGATE_TRANSPORT", TransportStdio))),
		DatabaseURL:         strings.TrimSpace(os.Getenv("PGGATE_DATABASE_URL")),
		AccessLevel:         strings.TrimSpace(os.Getenv("PGGATE_ACCESS_LEVEL")),
		DefaultSchema:       strings.TrimSpace(envOrDefault("PGGATE_DEFAULT_SCHEMA", defaultSchema)),
		SessionToken:        strings.TrimSpace(os.Getenv("PGGATE_TOKEN")),
		AllowCLIConfigToken: envBool("PGGATE_ALLOW_CLI_CONFIG_TOKEN", false),
		CLIConfigPath:       strings.TrimSpace(os.Getenv("PGGATE_CLI_CONFIG_PATH")),
		DevMode:             envBool("PGGATE_DEV_MODE", false),
	}

	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return Config{}, fmt.Errorf("invalid PGGATE_TRANSPORT %q (allowed: %s|%s)", cfg.Transport, TransportStdio, TransportHTTP)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("PGGATE_DATABASE_URL is required")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.DefaultSchema == "" {
		cfg.DefaultSchema = defaultSchema
	}

	return cfg, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultVal
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return defaultVal
	}
}
