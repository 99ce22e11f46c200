package indexer

import (
	"context"

	"github.com/0x5457/corpus-embeddings/internal/models"
)

type Indexer interface {
	IndexCorpus(ctx context.Context, root string) error
	IndexCorpusProgress(ctx context.Context, root string) (<-chan models.IndexProgress, <-chan error)
	IndexFile(ctx context.Context, path string) error
	SearchSemantic(ctx context.Context, query string, topK int) ([]models.SemanticHit, error)
}
