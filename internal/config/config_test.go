package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PGGATE_LISTEN_ADDR",
		"PGGATE_LOG_LEVEL",
		"PGGATE_TRANSPORT",
		"PGGATE_DATABASE_URL",
		"PGGATE_ACCESS_LEVEL",
		"PGGATE_DEFAULT_SCHEMA",
		"PGGATE_TOKEN",
		"PGGATE_DEV_MODE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGGATE_DATABASE_URL", "postgres://localhost/app?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":27750", cfg.ListenAddr)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, TransportStdio, cfg.Transport)
	require.Equal(t, "public", cfg.DefaultSchema)
	require.Empty(t, cfg.AccessLevel)
	require.Empty(t, cfg.SessionToken)
	require.False(t, cfg.DevMode)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGGATE_DATABASE_URL", "postgres://db:5432/prod")
	t.Setenv("PGGATE_TRANSPORT", "HTTP")
	t.Setenv("PGGATE_LISTEN_ADDR", ":9090")
	t.Setenv("PGGATE_ACCESS_LEVEL", "readwrite")
	t.Setenv("PGGATE_DEFAULT_SCHEMA", "tenant1")
	t.Setenv("PGGATE_TOKEN", "s3cret")
	t.Setenv("PGGATE_DEV_MODE", "yes")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, TransportHTTP, cfg.Transport)
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, "readwrite", cfg.AccessLevel)
	require.Equal(t, "tenant1", cfg.DefaultSchema)
	require.Equal(t, "s3cret", cfg.SessionToken)
	require.True(t, cfg.DevMode)
}

func TestLoad_InvalidTransport(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGGATE_DATABASE_URL", "postgres://localhost/app")
	t.Setenv("PGGATE_TRANSPORT", "grpc")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PGGATE_TRANSPORT")
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PGGATE_DATABASE_URL")
}
