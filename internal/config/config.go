package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"
	"github.com/rs/zerolog"

	"github.com/ca-srg/minisearch/internal/types"
)

// Type alias for Config
type Config = types.Config

const (
	maxEngineConcurrency = 256
	maxOutputBytesLimit  = 64 << 20
)

// LoadDotEnv loads variables from a .env file in the working directory, if present.
// Variables already set in the environment are not overridden.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if err := validateEngineConfig(config); err != nil {
		return fmt.Errorf("search engine configuration validation failed: %w", err)
	}

	if config.MaxQueryLength <= 0 {
		config.MaxQueryLength = 1024
	}

	if config.RateLimitPerMinute < 0 {
		config.RateLimitPerMinute = 0
	}

	if config.ServerShutdownTimeout <= 0 {
		config.ServerShutdownTimeout = 10 * time.Second
	}

	config.LogFormat = strings.ToLower(strings.TrimSpace(config.LogFormat))
	switch config.LogFormat {
	case "json", "console":
	case "":
		config.LogFormat = "json"
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", config.LogFormat)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(config.LogLevel)); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", config.LogLevel, err)
	}

	if config.StatsEnabled && config.StatsDBPath == "" {
		path, err := defaultStatsDBPath()
		if err != nil {
			return err
		}
		config.StatsDBPath = path
	}

	return nil
}

// validateEngineConfig validates the external search engine settings
func validateEngineConfig(config *Config) error {
	if strings.TrimSpace(config.EnginePath) == "" {
		return fmt.Errorf("SEARCH_ENGINE_PATH cannot be empty")
	}

	if strings.TrimSpace(config.EngineWorkDir) == "" {
		config.EngineWorkDir = "."
	}

	workDir, err := filepath.Abs(config.EngineWorkDir)
	if err != nil {
		return fmt.Errorf("invalid SEARCH_ENGINE_WORKDIR: %w", err)
	}
	config.EngineWorkDir = workDir

	if config.EngineMaxOutputBytes <= 0 {
		return fmt.Errorf("SEARCH_ENGINE_MAX_OUTPUT_BYTES must be greater than 0")
	}
	if config.EngineMaxOutputBytes > maxOutputBytesLimit {
		config.EngineMaxOutputBytes = maxOutputBytesLimit
	}

	// Zero disables the timeout.
	if config.EngineTimeout < 0 {
		return fmt.Errorf("SEARCH_ENGINE_TIMEOUT cannot be negative")
	}

	if config.EngineMaxConcurrency < 1 {
		config.EngineMaxConcurrency = 1
	}
	if config.EngineMaxConcurrency > maxEngineConcurrency {
		config.EngineMaxConcurrency = maxEngineConcurrency
	}

	if config.EngineMaxQueued < 0 {
		config.EngineMaxQueued = 0
	}

	return nil
}

func defaultStatsDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".minisearch", "stats.db"), nil
}
