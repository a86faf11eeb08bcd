package api

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	salespostgres "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/persistence/postgres"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	TxIsolation       sql.IsolationLevel
	LockTimeout       time.Duration
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	SeedDemoData      bool
	MetricsEnabled    bool
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		SeedDemoData:      isTruthy(envDefault("SEED_DEMO_DATA", "true")),
		MetricsEnabled:    isTruthy(envDefault("METRICS_ENABLED", "true")),
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
	}

	isolation, err := salespostgres.ParseIsolation(os.Getenv("POSTGRES_TX_ISOLATION"))
	if err != nil {
		return Config{}, fmt.Errorf("POSTGRES_TX_ISOLATION: %w", err)
	}
	cfg.TxIsolation = isolation

	if raw := strings.TrimSpace(os.Getenv("POSTGRES_LOCK_TIMEOUT_MS")); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			return Config{}, fmt.Errorf("POSTGRES_LOCK_TIMEOUT_MS must be a non-negative integer")
		}
		cfg.LockTimeout = time.Duration(ms) * time.Millisecond
	}
	if raw := strings.TrimSpace(os.Getenv("STORE_BREAKER_FAILURES")); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("STORE_BREAKER_FAILURES must be a non-negative integer")
		}
		cfg.BreakerFailures = uint32(n)
	}
	if raw := strings.TrimSpace(os.Getenv("STORE_BREAKER_TIMEOUT_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("STORE_BREAKER_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.BreakerTimeout = time.Duration(seconds) * time.Second
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
