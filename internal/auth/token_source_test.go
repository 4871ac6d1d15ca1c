package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveToken_PrefersConfiguredToken(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeFile(configPath, []byte("auth:\n  token: cli-token\n")))

	resolved, err := ResolveToken(TokenSourceOptions{
		ConfiguredToken:     "configured-token",
		AllowCLIConfigToken: true,
		CLIConfigPath:       configPath,
	})
	require.NoError(t, err)
	require.Equal(t, "configured-token", resolved.Token)
	require.Equal(t, TokenSourceConfig, resolved.Source)
}

func TestResolveToken_UsesCLIConfigWhenAllowed(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeFile(configPath, []byte("auth:\n  token: cli-token\n")))

	resolved, err := ResolveToken(TokenSourceOptions{
		AllowCLIConfigToken: true,
		CLIConfigPath:       configPath,
	})
	require.NoError(t, err)
	require.Equal(t, "cli-token", resolved.Token)
	require.Equal(t, TokenSourceCLIConfig, resolved.Source)
}

func TestResolveToken_IgnoresCLIConfigWhenNotAllowed(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeFile(configPath, []byte("auth:\n  token: cli-token\n")))

	resolved, err := ResolveToken(TokenSourceOptions{
		AllowCLIConfigToken: false,
		CLIConfigPath:       configPath,
	})
	require.NoError(t, err)
	require.Equal(t, "", resolved.Token)
}

func TestResolveToken_MissingCLIConfigIsNotAnError(t *testing.T) {
	resolved, err := ResolveToken(TokenSourceOptions{
		AllowCLIConfigToken: true,
		CLIConfigPath:       filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.NoError(t, err)
	require.Equal(t, "", resolved.Token)
}

func TestResolveToken_MalformedCLIConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeFile(configPath, []byte(":\nnot yaml at all {{")))

	_, err := ResolveToken(TokenSourceOptions{
		AllowCLIConfigToken: true,
		CLIConfigPath:       configPath,
	})
	require.Error(t, err)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}
