package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("STATS_DB_PATH", filepath.Join(t.TempDir(), "stats.db"))

		cfg, err := Load()
		require.NoError(t, err)

		require.Equal(t, "0.0.0.0", cfg.Host)
		require.Equal(t, 3000, cfg.Port)
		require.Equal(t, "./search_engine", cfg.EnginePath)
		require.True(t, filepath.IsAbs(cfg.EngineWorkDir), "workdir should be resolved to an absolute path")
		require.Equal(t, 1024*1024, cfg.EngineMaxOutputBytes)
		require.Equal(t, 30*time.Second, cfg.EngineTimeout)
		require.Equal(t, 16, cfg.EngineMaxConcurrency)
		require.Equal(t, 1024, cfg.MaxQueryLength)
		require.Equal(t, "json", cfg.LogFormat)
		require.True(t, cfg.StatsEnabled)
		require.False(t, cfg.OTelEnabled)
	})

	t.Run("parses engine overrides", func(t *testing.T) {
		workDir := t.TempDir()
		t.Setenv("SEARCH_ENGINE_PATH", "/opt/engine/search_engine")
		t.Setenv("SEARCH_ENGINE_WORKDIR", workDir)
		t.Setenv("SEARCH_ENGINE_TIMEOUT", "0s")
		t.Setenv("SEARCH_ENGINE_MAX_CONCURRENCY", "4")
		t.Setenv("PORT", "8080")
		t.Setenv("STATS_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		require.Equal(t, "/opt/engine/search_engine", cfg.EnginePath)
		require.Equal(t, workDir, cfg.EngineWorkDir)
		require.Zero(t, cfg.EngineTimeout, "zero timeout disables the bound")
		require.Equal(t, 4, cfg.EngineMaxConcurrency)
		require.Equal(t, "0.0.0.0:8080", cfg.Addr())
		require.Empty(t, cfg.StatsDBPath)
	})

	t.Run("normalizes out of range values", func(t *testing.T) {
		t.Setenv("STATS_ENABLED", "false")
		t.Setenv("SEARCH_ENGINE_MAX_CONCURRENCY", "-3")
		t.Setenv("SEARCH_ENGINE_MAX_QUEUED", "-1")
		t.Setenv("RATE_LIMIT_PER_MINUTE", "-10")
		t.Setenv("SEARCH_MAX_QUERY_LENGTH", "0")
		t.Setenv("LOG_FORMAT", "Console")

		cfg, err := Load()
		require.NoError(t, err)

		require.Equal(t, 1, cfg.EngineMaxConcurrency)
		require.Equal(t, 0, cfg.EngineMaxQueued)
		require.Equal(t, 0, cfg.RateLimitPerMinute)
		require.Equal(t, 1024, cfg.MaxQueryLength)
		require.Equal(t, "console", cfg.LogFormat)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		testcases := map[string]map[string]string{
			"port out of range":  {"PORT": "70000"},
			"empty engine path":  {"SEARCH_ENGINE_PATH": " "},
			"zero output bound":  {"SEARCH_ENGINE_MAX_OUTPUT_BYTES": "0"},
			"negative timeout":   {"SEARCH_ENGINE_TIMEOUT": "-1s"},
			"unknown log format": {"LOG_FORMAT": "xml"},
			"unknown log level":  {"LOG_LEVEL": "loud"},
		}

		for name, vars := range testcases {
			vars := vars
			t.Run(name, func(t *testing.T) {
				t.Setenv("STATS_ENABLED", "false")
				for key, value := range vars {
					t.Setenv(key, value)
				}

				_, err := Load()
				require.Error(t, err)
			})
		}
	})
}
