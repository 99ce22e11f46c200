package searchfx

import (
	"context"

	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/search"
	"github.com/0x5457/corpus-embeddings/internal/storage"
	"go.uber.org/fx"
)

// Params represents dependencies for search service
type Params struct {
	fx.In

	Embedder    embeddings.Embedder
	Registry    *embeddings.Registry `optional:"true"`
	VecStore    storage.VectorStore  `optional:"true"`
	RerankModel string               `name:"rerankModel" optional:"true"`
}

// NewSearchService creates a new search service instance
func NewSearchService(params Params) (*search.Service, error) {
	svc := &search.Service{
		Embedder: params.Embedder,
		Vector:   params.VecStore, // Can be nil
	}
	if params.RerankModel != "" && params.Registry != nil {
		ce, err := params.Registry.CrossEncoder(context.Background(), params.RerankModel)
		if err != nil {
			return nil, err
		}
		svc.Reranker = ce
	}
	return svc, nil
}

// Module provides search components
var Module = fx.Module("search",
	fx.Provide(NewSearchService),
)
