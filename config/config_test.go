package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GATEWAY_RUNTIME_URL",
		"GATEWAY_CHAIN_ID",
		"GATEWAY_DB_PATH",
		"GATEWAY_NOTIFIER_INTERVAL_MS",
		"GATEWAY_METRICS_ADDR",
		"GATEWAY_LOGGER_DEVELOPMENT",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadConfig(t *testing.T) {
	clearGatewayEnv(t)

	path := writeConfigFile(t, `
runtime:
  url: ws://localhost:8555
  chain_id: 42261
database:
  path: /var/lib/gateway/chain
notifier:
  interval_ms: 500
metrics:
  addr: :9090
logger:
  development: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8555", cfg.Runtime.URL)
	assert.Equal(t, int64(42261), cfg.Runtime.ChainID)
	assert.Equal(t, "/var/lib/gateway/chain", cfg.Database.Path)
	assert.Equal(t, 500, cfg.Notifier.IntervalMS)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.True(t, cfg.Logger.Development)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("GATEWAY_RUNTIME_URL", "ws://override:9999")
	t.Setenv("GATEWAY_CHAIN_ID", "5")
	t.Setenv("GATEWAY_LOGGER_DEVELOPMENT", "true")

	path := writeConfigFile(t, `
runtime:
  url: ws://localhost:8555
  chain_id: 42261
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://override:9999", cfg.Runtime.URL)
	assert.Equal(t, int64(5), cfg.Runtime.ChainID)
	assert.True(t, cfg.Logger.Development)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearGatewayEnv(t)

	tests := []struct {
		name     string
		contents string
	}{
		{"missing runtime url", "runtime:\n  chain_id: 1\n"},
		{"missing chain id", "runtime:\n  url: ws://localhost:8555\n"},
		{"negative interval", "runtime:\n  url: ws://x\n  chain_id: 1\nnotifier:\n  interval_ms: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.contents)
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearGatewayEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
