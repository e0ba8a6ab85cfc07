package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://newsapi.org/v2", cfg.Feed.BaseURL)
	assert.Equal(t, 100, cfg.Feed.PageSize)
	assert.Equal(t, 5, cfg.Feed.MaxPages)
	assert.Equal(t, time.Second, cfg.Feed.MinInterval())
	assert.Equal(t, 3, cfg.Feed.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Feed.RetryDelay())
	assert.Equal(t, 24, cfg.Feed.WindowHours)
	assert.Equal(t, 5*time.Minute, cfg.Queue.VisibilityTimeout())
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 1024, cfg.Anthropic.MaxTokens)
	assert.InDelta(t, 2.0, cfg.Anthropic.RatePerSec, 0.001)
	assert.Equal(t, 2000, cfg.Enrich.MaxContentLen)
	assert.Equal(t, 200, cfg.Enrich.SummaryMaxLen)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Worker.RetryDelay())
	assert.Equal(t, 30*time.Minute, cfg.Schedule.Interval())
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
feed:
  query: "semiconductors"
  max_pages: 2
worker:
  concurrency: 8
tickers:
  - NVDA
  - AMD
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "semiconductors", cfg.Feed.Query)
	assert.Equal(t, 2, cfg.Feed.MaxPages)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.Equal(t, []string{"NVDA", "AMD"}, cfg.Tickers)
	// Defaults still apply for unset values
	assert.Equal(t, 100, cfg.Feed.PageSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("NEWSWATCH_STORE_DRIVER", "postgres")
	t.Setenv("NEWSWATCH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtemp(t)

	t.Setenv("NEWSWATCH_SERVER_PORT", "3000")
	t.Setenv("NEWSWATCH_FEED_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "test-key", cfg.Feed.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
