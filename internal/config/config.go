package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/0x5457/corpus-embeddings/internal/constants"
	"github.com/spf13/viper"
)

// Config holds every setting read from the environment.
type Config struct {
	Host               string `mapstructure:"embedding_host"`
	Port               int    `mapstructure:"embedding_port"`
	Model              string `mapstructure:"embedding_sentence_transformer_model"`
	VectorSize         int    `mapstructure:"vector_size"`
	ModelEndpoint      string `mapstructure:"embedding_model_endpoint"`
	HTTPTimeoutSeconds int    `mapstructure:"embedding_http_timeout_seconds"`
	PoolWorkers        int    `mapstructure:"embedding_pool_workers"`
	CachePath          string `mapstructure:"embedding_cache_path"`
	DBPath             string `mapstructure:"embedding_db_path"`
	MetricsAddr        string `mapstructure:"embedding_metrics_addr"`
	StrictDimension    bool   `mapstructure:"embedding_strict_dimension"`
	LogLevel           string `mapstructure:"log_level"`
}

func (c *Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("embedding_host", constants.DefaultHost)
	v.SetDefault("embedding_port", constants.DefaultPort)
	v.SetDefault("embedding_sentence_transformer_model", constants.DefaultModel)
	v.SetDefault("vector_size", constants.DefaultVectorSize)
	v.SetDefault("embedding_model_endpoint", "")
	v.SetDefault("embedding_http_timeout_seconds", constants.DefaultHTTPTimeoutSeconds)
	v.SetDefault("embedding_pool_workers", constants.DefaultPoolWorkers)
	v.SetDefault("embedding_cache_path", "")
	v.SetDefault("embedding_db_path", filepath.Join(os.TempDir(), constants.DefaultDBFile))
	v.SetDefault("embedding_metrics_addr", "")
	v.SetDefault("embedding_strict_dimension", false)
	v.SetDefault("log_level", constants.DefaultLogLevel)
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.VectorSize <= 0 {
		return fmt.Errorf("invalid vector size: %d", cfg.VectorSize)
	}
	if cfg.PoolWorkers <= 0 {
		return fmt.Errorf("invalid pool worker count: %d", cfg.PoolWorkers)
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http timeout: %d", cfg.HTTPTimeoutSeconds)
	}
	return nil
}
