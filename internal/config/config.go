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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	DataGov DataGovConfig `yaml:"datagov" mapstructure:"datagov"`
	Vocab   VocabConfig   `yaml:"vocab" mapstructure:"vocab"`
	Audit   AuditConfig   `yaml:"audit" mapstructure:"audit"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the analytic store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DataGovConfig holds government data portal settings. The resource IDs
// are configuration because they rotate independently of the pipeline;
// a stale ID surfaces as a live-fetch failure and takes the historical
// fallback path.
type DataGovConfig struct {
	APIKey             string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL            string  `yaml:"base_url" mapstructure:"base_url"`
	MarketResource     string  `yaml:"market_resource" mapstructure:"market_resource"`
	ProductionResource string  `yaml:"production_resource" mapstructure:"production_resource"`
	RateLimit          float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// VocabConfig points at an optional vocabulary override file; empty
// means the embedded default.
type VocabConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AuditConfig configures the provenance audit log.
type AuditConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

// ServerConfig configures the HTTP service.
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
	v.SetEnvPrefix("SAMARTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "samarth.db")
	v.SetDefault("datagov.api_key", "579b464db66ec23bdd000001cdd3946e44ce4aad7209ff7b23ac571b")
	v.SetDefault("datagov.base_url", "https://api.data.gov.in/resource")
	v.SetDefault("datagov.rate_limit", 5)
	v.SetDefault("datagov.timeout_secs", 15)
	v.SetDefault("audit.path", "audit_log.jsonl")
	v.SetDefault("audit.enabled", true)
	v.SetDefault("server.port", 8000)
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
