package storage

import "github.com/0x5457/corpus-embeddings/internal/models"

type VectorStore interface {
	Upsert(docs []models.Document, embeddings [][]float32) error
	DeleteBySource(source string) error
	Query(embedding []float32, topK int) ([]models.SemanticHit, error)
}

// EmbeddingCache stores vectors keyed by model and text. Get reports per text
// whether a vector was found.
type EmbeddingCache interface {
	Get(model string, texts []string) ([][]float32, []bool, error)
	Put(model string, texts []string, vecs [][]float32) error
}
