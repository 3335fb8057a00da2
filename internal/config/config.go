// Package config loads application configuration from config.yaml and
// ENVIDUCATE_-prefixed environment variables.
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
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Bounds    BoundsConfig    `yaml:"bounds" mapstructure:"bounds"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Share     ShareConfig     `yaml:"share" mapstructure:"share"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnthropicConfig holds Anthropic API settings for classification and
// summarization. An empty key disables the AI path; the keyword heuristic and
// templated summaries are used instead.
type AnthropicConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// PipelineConfig configures extraction and sampling behavior.
type PipelineConfig struct {
	SampleBudget   int  `yaml:"sample_budget" mapstructure:"sample_budget"`
	GridSize       int  `yaml:"grid_size" mapstructure:"grid_size"`
	StrictGeometry bool `yaml:"strict_geometry" mapstructure:"strict_geometry"`
}

// BoundsConfig constrains analysis to a geographic bounding box.
type BoundsConfig struct {
	West  float64 `yaml:"west" mapstructure:"west"`
	South float64 `yaml:"south" mapstructure:"south"`
	East  float64 `yaml:"east" mapstructure:"east"`
	North float64 `yaml:"north" mapstructure:"north"`
}

// CacheConfig configures result cache retention.
type CacheConfig struct {
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// StoreConfig configures the result store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ShareConfig configures shareable URL generation.
type ShareConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENVIDUCATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.timeout_secs", 15)
	v.SetDefault("anthropic.requests_per_sec", 2)
	v.SetDefault("pipeline.sample_budget", 50)
	v.SetDefault("pipeline.grid_size", 10)
	v.SetDefault("pipeline.strict_geometry", false)
	// Michigan bounding box.
	v.SetDefault("bounds.west", -90.0)
	v.SetDefault("bounds.south", 41.0)
	v.SetDefault("bounds.east", -82.0)
	v.SetDefault("bounds.north", 48.0)
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "enviducate.db")
	v.SetDefault("share.base_url", "https://enviducate.org")

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
