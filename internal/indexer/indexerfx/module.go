package indexerfx

import (
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/indexer"
	"github.com/0x5457/corpus-embeddings/internal/indexer/pipeline"
	"github.com/0x5457/corpus-embeddings/internal/parser"
	"github.com/0x5457/corpus-embeddings/internal/storage"
	"go.uber.org/fx"
)

// Params represents dependencies for indexer components
type Params struct {
	fx.In

	Parser  parser.Parser
	Encoder *encoder.Service
	Vector  storage.VectorStore
	Options pipeline.Options `optional:"true"`
}

// NewIndexer creates the corpus indexing pipeline
func NewIndexer(params Params) indexer.Indexer {
	return pipeline.New(params.Parser, params.Encoder, params.Vector, params.Options)
}

// Module provides indexer components
var Module = fx.Module("indexer",
	fx.Provide(NewIndexer),
)
