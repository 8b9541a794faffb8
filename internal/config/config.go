// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Fallback endpoints used when no RPC URL is configured. The A side points at
// Ethereum mainnet, the B side at Arbitrum One.
const (
	FallbackRPCA = "https://mainnet.infura.io/v3/YOUR_INFURA_KEY"
	FallbackRPCB = "https://arb1.arbitrum.io/rpc"
)

// Config holds all application configuration. Endpoint defaults are resolved
// once at startup; explicit CLI flags override them.
type Config struct {
	DefaultRPCA string
	DefaultRPCB string
	LogLevel    string
	OTelEnabled bool
}

// LoadFromEnv reads configuration from environment variables with sensible
// defaults. The A-side endpoint falls back from RPC_URL_A to RPC_URL.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		DefaultRPCA: envOr("RPC_URL_A", envOr("RPC_URL", FallbackRPCA)),
		DefaultRPCB: envOr("RPC_URL_B", FallbackRPCB),
		LogLevel:    envOr("SLOTSOUND_LOG_LEVEL", "info"),
		OTelEnabled: envBool("SLOTSOUND_OTEL"),
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return Config{}, fmt.Errorf("config: invalid SLOTSOUND_LOG_LEVEL %q (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
