package search

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/models"
	"github.com/0x5457/corpus-embeddings/internal/storage"
)

var (
	ErrNoVectorStore = errors.New("no vector store configured")
	ErrNoReranker    = errors.New("no cross-encoder configured")
)

// Service runs semantic search over the corpus store, optionally reranking
// candidates with a cross-encoder.
type Service struct {
	Embedder embeddings.Embedder
	Vector   storage.VectorStore
	Reranker embeddings.CrossEncoder
}

type RankedHit struct {
	Hit         models.SemanticHit `json:"hit"`
	RerankScore float32            `json:"rerank_score"`
}

func (s *Service) Search(ctx context.Context, query string, topK int) ([]models.SemanticHit, error) {
	if s.Vector == nil {
		return nil, ErrNoVectorStore
	}
	qvec, err := s.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.Vector.Query(qvec, topK)
}

// SearchRerank retrieves candidates hits by vector similarity, scores each
// (query, content) pair with the cross-encoder and keeps the best topK.
func (s *Service) SearchRerank(
	ctx context.Context,
	query string,
	topK int,
	candidates int,
) ([]RankedHit, error) {
	if s.Reranker == nil {
		return nil, ErrNoReranker
	}
	hits, err := s.Search(ctx, query, max(candidates, topK))
	if err != nil {
		return nil, err
	}
	passages := make([]string, len(hits))
	for i, h := range hits {
		passages[i] = h.Document.Content
	}
	scores, err := s.Reranker.Score(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	ranked := make([]RankedHit, len(hits))
	for i, h := range hits {
		ranked[i] = RankedHit{Hit: h, RerankScore: scores[i]}
	}
	slices.SortStableFunc(ranked, func(a, b RankedHit) int {
		switch {
		case a.RerankScore > b.RerankScore:
			return -1
		case a.RerankScore < b.RerankScore:
			return 1
		}
		return 0
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}
