package embeddings

import (
	"context"
	"errors"
)

var (
	ErrEmptyModelName    = errors.New("model name must not be empty")
	ErrWrongModelKind    = errors.New("model kind does not match the requested use")
	ErrDimensionMismatch = errors.New("model dimension does not match configured vector size")
)

type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Dimension() int
}

// CrossEncoder scores each (query, passage) pair jointly.
type CrossEncoder interface {
	Score(ctx context.Context, query string, passages []string) ([]float32, error)
	ModelName() string
}
