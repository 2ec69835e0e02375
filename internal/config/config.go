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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	RequestsPerMin float64 `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// PipelineConfig configures candidate validation and selection.
type PipelineConfig struct {
	MinScore      float64 `yaml:"min_score" mapstructure:"min_score"`
	MaxFinal      int     `yaml:"max_final" mapstructure:"max_final"`
	MaxCandidates int     `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// DiscoveryConfig configures candidate discovery.
type DiscoveryConfig struct {
	SeedFile string `yaml:"seed_file" mapstructure:"seed_file"`
}

// FetchConfig configures the page fetcher.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// OutputConfig configures result serialization.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // "csv" or "xlsx"
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
	v.SetEnvPrefix("COMPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "comps.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	// An explicit empty default keeps the key visible to AutomaticEnv.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.requests_per_min", 3)
	v.SetDefault("anthropic.timeout_secs", 60)
	v.SetDefault("anthropic.max_retries", 5)
	v.SetDefault("pipeline.min_score", 0.35)
	v.SetDefault("pipeline.max_final", 10)
	v.SetDefault("pipeline.max_candidates", 40)
	v.SetDefault("discovery.seed_file", "")
	v.SetDefault("fetch.timeout_secs", 8)
	v.SetDefault("fetch.user_agent", "comps-finder/1.0")
	v.SetDefault("output.format", "csv")

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

// Validate fails fast on pipeline limits the core cannot run with. Called
// before any candidate processing begins.
func (c *PipelineConfig) Validate() error {
	if c.MinScore < 0 || c.MinScore > 1 {
		return eris.Errorf("config: min_score %.3f outside [0, 1]", c.MinScore)
	}
	if c.MaxFinal <= 0 {
		return eris.Errorf("config: max_final %d must be positive", c.MaxFinal)
	}
	if c.MaxCandidates <= 0 {
		return eris.Errorf("config: max_candidates %d must be positive", c.MaxCandidates)
	}
	return nil
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
