// Package config loads application configuration from file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Scan       ScanConfig       `mapstructure:"scan"`
	Scorers    ScorersConfig    `mapstructure:"scorers"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ScanConfig holds scanner behavior configuration.
type ScanConfig struct {
	Interval            time.Duration `mapstructure:"interval"`
	CorrelationInterval time.Duration `mapstructure:"correlation_interval"`
	RecentTokenWindow   time.Duration `mapstructure:"recent_token_window"`
}

// ScorersConfig selects the scoring collaborators. With Stubs false no
// scorers are wired and sentiment, virality, whale, and safety inputs
// contribute zero. The deterministic stubs are test doubles and must be
// opted into explicitly.
type ScorersConfig struct {
	Stubs bool `mapstructure:"stubs"`
}

// SourcesConfig holds upstream collector configuration.
type SourcesConfig struct {
	StreamURL string `mapstructure:"stream_url"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// PostgresConfig holds the alert and correlation store configuration.
// An empty DSN selects the in-memory stores.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ClickHouseConfig holds the optimization history store configuration.
// An empty DSN disables history recording.
type ClickHouseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file and environment
// variables. A missing file is not an error; defaults and environment
// take over.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RADAR")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.interval", "60s")
	v.SetDefault("scan.correlation_interval", "5m")
	v.SetDefault("scan.recent_token_window", "168h")

	v.SetDefault("scorers.stubs", false)

	v.SetDefault("sources.stream_url", "")

	v.SetDefault("telegram.enabled", false)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 10)

	v.SetDefault("clickhouse.dsn", "")

	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Scan.Interval < time.Second {
		return fmt.Errorf("scan.interval must be at least 1 second")
	}
	if c.Scan.CorrelationInterval < time.Second {
		return fmt.Errorf("scan.correlation_interval must be at least 1 second")
	}
	if c.Scan.RecentTokenWindow <= 0 {
		return fmt.Errorf("scan.recent_token_window must be positive")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
