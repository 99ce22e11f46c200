package configfx

import (
	"github.com/0x5457/corpus-embeddings/internal/config"
	"go.uber.org/fx"
)

// Params carries command-line overrides; zero values keep the environment setting.
type Params struct {
	fx.In

	Model   string `name:"model"   optional:"true"`
	DBPath  string `name:"dbPath"  optional:"true"`
	Port    int    `name:"port"    optional:"true"`
	Workers int    `name:"workers" optional:"true"`
}

// NewConfig loads the environment configuration and applies overrides
func NewConfig(params Params) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if params.Model != "" {
		cfg.Model = params.Model
	}
	if params.DBPath != "" {
		cfg.DBPath = params.DBPath
	}
	if params.Port > 0 {
		cfg.Port = params.Port
	}
	if params.Workers > 0 {
		cfg.PoolWorkers = params.Workers
	}
	return cfg, nil
}

// Module provides configuration for the application
var Module = fx.Module("config",
	fx.Provide(NewConfig),
)
