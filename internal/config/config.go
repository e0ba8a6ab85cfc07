package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Feed      FeedConfig      `yaml:"feed" mapstructure:"feed"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Worker    WorkerConfig    `yaml:"worker" mapstructure:"worker"`
	Schedule  ScheduleConfig  `yaml:"schedule" mapstructure:"schedule"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`

	// Tickers is the fallback tracked-ticker set used when the store's
	// tracked_tickers table is empty.
	Tickers []string `yaml:"tickers" mapstructure:"tickers"`
}

// FeedConfig configures the upstream news feed client.
type FeedConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Query         string `yaml:"query" mapstructure:"query"`
	PageSize      int    `yaml:"page_size" mapstructure:"page_size"`
	MaxPages      int    `yaml:"max_pages" mapstructure:"max_pages"`
	MinIntervalMS int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	MaxRetries    int    `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelayMS  int    `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	WindowHours   int    `yaml:"window_hours" mapstructure:"window_hours"`
}

// MinInterval returns the inter-request floor as a duration.
func (c FeedConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// RetryDelay returns the linear backoff unit as a duration.
func (c FeedConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// QueueConfig configures the durable work queue.
type QueueConfig struct {
	VisibilityTimeoutSecs int `yaml:"visibility_timeout_secs" mapstructure:"visibility_timeout_secs"`
}

// VisibilityTimeout returns the lease duration for dequeued items.
func (c QueueConfig) VisibilityTimeout() time.Duration {
	return time.Duration(c.VisibilityTimeoutSecs) * time.Second
}

// AnthropicConfig holds the enrichment capability settings.
type AnthropicConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	Model      string  `yaml:"model" mapstructure:"model"`
	MaxTokens  int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// EnrichConfig bounds enrichment inputs and outputs.
type EnrichConfig struct {
	MaxContentLen int `yaml:"max_content_len" mapstructure:"max_content_len"`
	SummaryMaxLen int `yaml:"summary_max_len" mapstructure:"summary_max_len"`
}

// WorkerConfig configures the enrichment worker pool.
type WorkerConfig struct {
	Concurrency  int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxRetries   int `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelayMS int `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
}

// RetryDelay returns the redelivery backoff unit as a duration.
func (c WorkerConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// ScheduleConfig configures the periodic ingestion loop.
type ScheduleConfig struct {
	IntervalMinutes int `yaml:"interval_minutes" mapstructure:"interval_minutes"`
}

// Interval returns the run interval as a duration.
func (c ScheduleConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// ServerConfig configures the status API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NEWSWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so the env bindings above
	// reach them without a config file.
	v.SetDefault("feed.key", "")
	v.SetDefault("feed.base_url", "https://newsapi.org/v2")
	v.SetDefault("feed.query", "stock market OR earnings OR merger")
	v.SetDefault("feed.page_size", 100)
	v.SetDefault("feed.max_pages", 5)
	v.SetDefault("feed.min_interval_ms", 1000)
	v.SetDefault("feed.max_retries", 3)
	v.SetDefault("feed.retry_delay_ms", 5000)
	v.SetDefault("feed.window_hours", 24)
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("queue.visibility_timeout_secs", 300)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.rate_per_sec", 2.0)
	v.SetDefault("enrich.max_content_len", 2000)
	v.SetDefault("enrich.summary_max_len", 200)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.max_retries", 3)
	v.SetDefault("worker.retry_delay_ms", 30000)
	v.SetDefault("schedule.interval_minutes", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
