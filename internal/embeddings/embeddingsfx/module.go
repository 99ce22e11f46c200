package embeddingsfx

import (
	"context"

	"github.com/0x5457/corpus-embeddings/internal/config"
	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params represents dependencies for embeddings components
type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
	Cache  embeddings.Cache `optional:"true"`
}

// NewRegistry creates the process-wide model registry
func NewRegistry(params Params) *embeddings.Registry {
	return embeddings.NewRegistry(&embeddings.ModelLoader{
		Endpoint:  params.Config.ModelEndpoint,
		Dimension: params.Config.VectorSize,
		Timeout:   params.Config.HTTPTimeout(),
		Cache:     params.Cache,
		Logger:    params.Logger,
	})
}

// NewEmbedder loads the configured default model
func NewEmbedder(reg *embeddings.Registry, cfg *config.Config) (embeddings.Embedder, error) {
	return reg.Embedder(context.Background(), cfg.Model)
}

// Module provides embeddings components
var Module = fx.Module("embeddings",
	fx.Provide(NewRegistry, NewEmbedder),
)
