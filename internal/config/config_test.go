package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadParsesFullDocument(t *testing.T) {
	path := writeTempConfig(t, `
market_access:
  login: 12345
  password: secret
  grpc_server: mt5.example.com:443
telemetry:
  metrics_addr: :9100
spread_limits:
  XAUUSD: 80
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(12345), cfg.MarketAccess.Login)
	require.Equal(t, "secret", cfg.MarketAccess.Password)
	require.Equal(t, "mt5.example.com:443", cfg.MarketAccess.GRPCServer)
	require.Equal(t, ":9100", cfg.Telemetry.MetricsAddr)
	require.Equal(t, 80.0, cfg.SpreadLimit("XAUUSD"))
}

func TestLoadDefaultsMetricsAddrWhenUnset(t *testing.T) {
	path := writeTempConfig(t, `
market_access:
  login: 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Telemetry.MetricsAddr)
}

func TestSpreadLimitFallsBackToDefaultTable(t *testing.T) {
	cfg := Config{}
	require.Equal(t, 50.0, cfg.SpreadLimit("XAUUSD"))
	require.Equal(t, 5.0, cfg.SpreadLimit("EURUSD"))
	require.Equal(t, 0.0, cfg.SpreadLimit("UNKNOWN"))
}

func TestSpreadLimitPrefersOverrideOverDefault(t *testing.T) {
	cfg := Config{SpreadLimits: map[string]float64{"XAUUSD": 123}}
	require.Equal(t, 123.0, cfg.SpreadLimit("XAUUSD"))
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
