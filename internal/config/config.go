// Package config loads the controller's bootstrap configuration: the
// Market Access Port endpoint and the default symbol spread-limit table.
// Per-bot configuration is decoded separately by bot.Config's own
// json.Unmarshaler; this package only covers what the process needs
// before any bot exists.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultSpreadLimits is the built-in per-symbol spread-limit table in
// points, overridable per-symbol by the bootstrap file's spread_limits
// map.
var defaultSpreadLimits = map[string]float64{
	"ETHUSD": 1000,
	"BTCUSD": 1000,
	"EURUSD": 5,
	"GBPUSD": 10,
	"USDJPY": 10,
	"XAUUSD": 50,
}

// MarketAccess is the dial configuration for the gRPC-backed Market
// Access Port implementation (mt5port).
type MarketAccess struct {
	Login      uint64 `yaml:"login"`
	Password   string `yaml:"password"`
	GRPCServer string `yaml:"grpc_server"`
}

// Telemetry is the bootstrap configuration for the event router's
// Prometheus exposition.
type Telemetry struct {
	MetricsAddr string `yaml:"metrics_addr"`
}

// Config is the controller's bootstrap document.
type Config struct {
	MarketAccess MarketAccess       `yaml:"market_access"`
	Telemetry    Telemetry          `yaml:"telemetry"`
	SpreadLimits map[string]float64 `yaml:"spread_limits"`
}

// SpreadLimit returns the effective points limit for symbol, falling back
// to the default table when the bootstrap file does not override it, and
// to 0 (meaning "no known default"; the bot's own symbol_spread_limit
// config field still governs) when neither does.
func (c Config) SpreadLimit(symbol string) float64 {
	if v, ok := c.SpreadLimits[symbol]; ok {
		return v
	}
	if v, ok := defaultSpreadLimits[symbol]; ok {
		return v
	}
	return 0
}

// Load reads and parses the bootstrap YAML document at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Telemetry.MetricsAddr == "" {
		cfg.Telemetry.MetricsAddr = ":9090"
	}
	return cfg, nil
}
