package encoderfx

import (
	"github.com/0x5457/corpus-embeddings/internal/config"
	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Embedder embeddings.Embedder
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics `optional:"true"`
}

func NewService(params Params) (*encoder.Service, error) {
	return encoder.NewService(params.Embedder, encoder.Options{
		ModelName:       params.Config.Model,
		VectorSize:      params.Config.VectorSize,
		Workers:         params.Config.PoolWorkers,
		StrictDimension: params.Config.StrictDimension,
		Logger:          params.Logger,
		Metrics:         params.Metrics,
	})
}

// Module provides the encode service
var Module = fx.Module("encoder",
	fx.Provide(NewService),
)
