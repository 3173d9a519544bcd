package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 30, cfg.Market.PollIntervalSec)
	require.Equal(t, 1.0, cfg.Ranking.VolumeWeight)
	require.Equal(t, 50, cfg.Ranking.Limit)
	require.Equal(t, "data/app.db", cfg.Store.Sqlite.Path)
	require.NotEmpty(t, cfg.Market.URL)
}

func TestLoadOverridesFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
market:
  url: "https://example.com/markets"
  poll_interval_sec: 5
ranking:
  volume_weight: 2.5
  limit: 10
alert:
  min_delta: 1.5
`))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/markets", cfg.Market.URL)
	require.Equal(t, 5, cfg.Market.PollIntervalSec)
	require.Equal(t, 2.5, cfg.Ranking.VolumeWeight)
	require.Equal(t, 10, cfg.Ranking.Limit)
	require.Equal(t, 1.5, cfg.Alert.MinDelta)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7001")
	t.Setenv("GAMMA_URL", "https://mirror.example.com/markets")
	t.Setenv("ALERT_WEBHOOK", "https://hooks.example.com/x")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)
	require.Equal(t, 7001, cfg.Server.Port)
	require.Equal(t, "https://mirror.example.com/markets", cfg.Market.URL)
	require.Equal(t, "https://hooks.example.com/x", cfg.Alert.Webhook)
}

func TestEnvInvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	_, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
