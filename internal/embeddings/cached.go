package embeddings

import "context"

// Cache persists vectors keyed by model and text.
type Cache interface {
	Get(model string, texts []string) ([][]float32, []bool, error)
	Put(model string, texts []string, vecs [][]float32) error
}

// CachedEmbedder serves repeated texts from a Cache and only encodes misses.
type CachedEmbedder struct {
	inner Embedder
	cache Cache
}

func NewCached(inner Embedder, cache Cache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

// Unwrap returns the embedder behind the cache.
func (c *CachedEmbedder) Unwrap() Embedder { return c.inner }

func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

func (c *CachedEmbedder) Dimension() int { return c.inner.Dimension() }

func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, hits, err := c.cache.Get(c.inner.ModelName(), texts)
	if err != nil {
		return c.inner.EmbedTexts(ctx, texts)
	}
	var missing []string
	var idx []int
	for i, ok := range hits {
		if !ok {
			missing = append(missing, texts[i])
			idx = append(idx, i)
		}
	}
	if len(missing) == 0 {
		return vecs, nil
	}
	fresh, err := c.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, i := range idx {
		vecs[i] = fresh[j]
	}
	// put errors are not fatal to the batch
	_ = c.cache.Put(c.inner.ModelName(), missing, fresh)
	return vecs, nil
}

func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
