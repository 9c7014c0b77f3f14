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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Claude   ClaudeConfig   `yaml:"claude" mapstructure:"claude"`
	Workflow WorkflowConfig `yaml:"workflow" mapstructure:"workflow"`
	Supplier SupplierConfig `yaml:"supplier" mapstructure:"supplier"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int    `yaml:"max_conns" mapstructure:"max_conns"`
}

// ClaudeConfig holds Anthropic API settings.
type ClaudeConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// WorkflowConfig configures the comparison pipeline.
type WorkflowConfig struct {
	BaseThreshold      float64  `yaml:"base_threshold" mapstructure:"base_threshold"`
	SourceLanguage     string   `yaml:"source_language" mapstructure:"source_language"`
	TargetLanguage     string   `yaml:"target_language" mapstructure:"target_language"`
	FocusCategories    []string `yaml:"focus_categories" mapstructure:"focus_categories"`
	MaxParallelMatches int      `yaml:"max_parallel_matches" mapstructure:"max_parallel_matches"`
}

// SupplierConfig configures supplier catalog retrieval.
type SupplierConfig struct {
	FTPTimeoutSecs int    `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
	FTPUser        string `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPass        string `yaml:"ftp_pass" mapstructure:"ftp_pass"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("BOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "bom.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("claude.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("claude.rate_limit", 2.0)
	v.SetDefault("claude.timeout_secs", 120)
	v.SetDefault("workflow.base_threshold", 0.6)
	v.SetDefault("workflow.source_language", "ja")
	v.SetDefault("workflow.target_language", "en")
	v.SetDefault("workflow.max_parallel_matches", 4)
	v.SetDefault("supplier.ftp_timeout_secs", 30)
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

// Validate checks the configuration for the given command mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Workflow.BaseThreshold < 0 || c.Workflow.BaseThreshold > 1 {
		problems = append(problems, "workflow.base_threshold must be between 0 and 1")
	}
	if c.Workflow.MaxParallelMatches < 1 || c.Workflow.MaxParallelMatches > 64 {
		problems = append(problems, "workflow.max_parallel_matches must be between 1 and 64")
	}

	switch mode {
	case "run", "runs":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
