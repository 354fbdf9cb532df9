package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"clusterperm/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Test     TestConfig
	Server   ServerConfig
	Database DatabaseConfig
}

// TestConfig holds the cluster-test knobs
type TestConfig struct {
	// Threshold is the cluster-forming threshold tau. When PThreshold is
	// set instead, the statistic adapter derives tau from a distribution
	// quantile at run time.
	Threshold  float64
	PThreshold float64
	Tail       string
	// Permutations controls null-distribution resolution; the minimum
	// detectable corrected p-value is 1/(Permutations+1).
	Permutations int
	Parallelism  int
	Seed         int64
	Alpha        float64
}

// ServerConfig holds the optional HTTP surface settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the optional result-store settings
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from the environment (with .env support) and
// validates it
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Test: TestConfig{
			Threshold:    getEnvFloatOrDefault("THRESHOLD", 0),
			PThreshold:   getEnvFloatOrDefault("P_THRESHOLD", 0),
			Tail:         getEnvOrDefault("TAIL_MODE", "two-tailed"),
			Permutations: getEnvIntOrDefault("PERMUTATIONS", 1024),
			Parallelism:  getEnvIntOrDefault("PARALLELISM", 0),
			Seed:         int64(getEnvIntOrDefault("RANDOM_SEED", 0)),
			Alpha:        getEnvFloatOrDefault("ALPHA", 0.05),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Test.Permutations < 1 {
		return errors.ConfigInvalid("PERMUTATIONS must be at least 1")
	}
	if cfg.Test.Parallelism < 0 {
		return errors.ConfigInvalid("PARALLELISM must not be negative")
	}
	if cfg.Test.Threshold < 0 {
		return errors.ConfigInvalid("THRESHOLD must not be negative")
	}
	if cfg.Test.PThreshold < 0 || cfg.Test.PThreshold >= 1 {
		return errors.ConfigInvalid("P_THRESHOLD must be in [0, 1)")
	}
	if cfg.Test.Threshold == 0 && cfg.Test.PThreshold == 0 {
		return errors.ConfigInvalid("one of THRESHOLD or P_THRESHOLD is required")
	}
	if cfg.Test.Alpha <= 0 || cfg.Test.Alpha >= 1 {
		return errors.ConfigInvalid("ALPHA must be in (0, 1)")
	}
	switch cfg.Test.Tail {
	case "two-tailed", "both", "positive", "upper", "negative", "lower":
	default:
		return errors.ConfigInvalid("TAIL_MODE must be two-tailed, positive or negative")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
