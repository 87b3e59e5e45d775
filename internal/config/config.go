// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the complete service configuration. All values come from the
// environment with the OOF_ prefix, e.g. OOF_POSTGRES_DSN.
type Config struct {
	// Chain RPC endpoints. A chain with an empty endpoint is skipped.
	SolanaRPCEndpoint    string `envconfig:"SOLANA_RPC_ENDPOINT"`
	BaseRPCEndpoint      string `envconfig:"BASE_RPC_ENDPOINT"`
	AvalancheRPCEndpoint string `envconfig:"AVALANCHE_RPC_ENDPOINT"`

	// Price oracle.
	PriceAPIBaseURL string `envconfig:"PRICE_API_BASE_URL"`
	PriceAPIKey     string `envconfig:"PRICE_API_KEY"`
	PriceWSEndpoint string `envconfig:"PRICE_WS_ENDPOINT"` // optional streaming feed

	// Storage backends. Empty DSN disables that backend.
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`

	// Analysis behavior.
	AnalysisCooldown time.Duration `envconfig:"ANALYSIS_COOLDOWN" default:"24h"`
	AnalysisTimeout  time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"90s"`
	ChainTimeout     time.Duration `envconfig:"CHAIN_TIMEOUT" default:"45s"`

	// HTTP service.
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// Logging.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Env      string `envconfig:"ENV" default:"development"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("OOF", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}
