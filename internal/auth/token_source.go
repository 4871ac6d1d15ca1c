// Package auth resolves the MCP session token for incoming tool calls.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TokenSource identifies where a token was resolved from.
type TokenSource string

const (
	// TokenSourceConfig is the token carried in the loaded configuration
	// (PGGATE_TOKEN or .env).
	TokenSourceConfig TokenSource = "config"
	// TokenSourceCLIConfig is ~/.pggate/config.yaml auth.token.
	TokenSourceCLIConfig TokenSource = "cli_config"
)

// TokenResolution contains the resolved token and source.
type TokenResolution struct {
	Token  string
	Source TokenSource
}

// TokenSourceOptions controls token resolution. ConfiguredToken is passed in
// explicitly (resolution never re-reads the environment).
type TokenSourceOptions struct {
	ConfiguredToken     string
	AllowCLIConfigToken bool
	CLIConfigPath       string
}

type cliConfigFile struct {
	Auth struct {
		Token string `yaml:"token"`
	} `yaml:"auth"`
}

// ResolveToken resolves the session token using deterministic precedence:
// 1) the configured token
// 2) CLI config auth.token (only when AllowCLIConfigToken=true)
// An empty resolution is not an error; transports treat a missing token as
// unauthenticated.
func ResolveToken(opts TokenSourceOptions) (TokenResolution, error) {
	if token := strings.TrimSpace(opts.ConfiguredToken); token != "" {
		return TokenResolution{Token: token, Source: TokenSourceConfig}, nil
	}

	if !opts.AllowCLIConfigToken {
		return TokenResolution{}, nil
	}

	configPath := expandPath(defaultIfEmpty(strings.TrimSpace(opts.CLIConfigPath), "~/.pggate/config.yaml"))
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		return TokenResolution{}, nil
	default:
		return TokenResolution{}, fmt.Errorf("reading CLI config token source: %w", err)
	}

	var cfg cliConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return TokenResolution{}, fmt.Errorf("decoding CLI config token source: %w", err)
	}

	token := strings.TrimSpace(cfg.Auth.Token)
	if token == "" {
		return TokenResolution{}, nil
	}

	return TokenResolution{Token: token, Source: TokenSourceCLIConfig}, nil
}

func defaultIfEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/"))
	}
	return filepath.Clean(path)
}
