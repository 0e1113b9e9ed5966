// Package config loads application configuration from file and environment
// and owns the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Feeds  FeedsConfig  `yaml:"feeds" mapstructure:"feeds"`
	Genre  GenreConfig  `yaml:"genre" mapstructure:"genre"`
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FeedsConfig configures the FCC feed downloads.
type FeedsConfig struct {
	FMURL       string `yaml:"fm_url" mapstructure:"fm_url"`
	AMURL       string `yaml:"am_url" mapstructure:"am_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// GenreConfig configures the genre discovery provider.
type GenreConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"`
	GeminiKey      string `yaml:"gemini_api_key" mapstructure:"gemini_api_key"`
	GeminiModel    string `yaml:"gemini_model" mapstructure:"gemini_model"`
	AnthropicKey   string `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	AnthropicModel string `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	MaxRetries     int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// EnrichConfig configures the enrichment driver.
type EnrichConfig struct {
	DailyQuota    int    `yaml:"daily_quota" mapstructure:"daily_quota"`
	Limit         int    `yaml:"limit" mapstructure:"limit"`
	Concurrency   int    `yaml:"concurrency" mapstructure:"concurrency"`
	QuotaTimezone string `yaml:"quota_timezone" mapstructure:"quota_timezone"`
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
	v.SetEnvPrefix("STATIONDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key gets one so environment-only values survive
	// Unmarshal.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "radio_stations.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("feeds.fm_url", "")
	v.SetDefault("feeds.am_url", "")
	v.SetDefault("feeds.user_agent", "")
	v.SetDefault("feeds.timeout_secs", 120)
	v.SetDefault("feeds.max_retries", 3)
	v.SetDefault("genre.provider", "gemini")
	v.SetDefault("genre.gemini_api_key", "")
	v.SetDefault("genre.anthropic_api_key", "")
	v.SetDefault("genre.gemini_model", "gemini-2.5-flash")
	v.SetDefault("genre.anthropic_model", "claude-haiku-4-5-20251001")
	v.SetDefault("genre.max_retries", 3)
	v.SetDefault("enrich.daily_quota", 500)
	v.SetDefault("enrich.limit", 100)
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("enrich.quota_timezone", "America/Los_Angeles")
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
