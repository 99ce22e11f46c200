package embeddings_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	embeddings.ModelLoader
	loads atomic.Int32
	fail  atomic.Bool
}

func (l *countingLoader) LoadEmbedder(ctx context.Context, name string) (embeddings.Embedder, error) {
	l.loads.Add(1)
	if l.fail.Load() {
		return nil, errors.New("boom")
	}
	return l.ModelLoader.LoadEmbedder(ctx, name)
}

func Test_Registry_LoadsOncePerName(t *testing.T) {
	loader := &countingLoader{ModelLoader: embeddings.ModelLoader{Dimension: 8}}
	reg := embeddings.NewRegistry(loader)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := reg.Embedder(context.Background(), "all-mpnet-base-v2")
			assert.NoError(t, err)
			assert.Equal(t, 8, e.Dimension())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), loader.loads.Load())

	_, err := reg.Embedder(context.Background(), "other-model")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.loads.Load())
	assert.ElementsMatch(t, []string{"all-mpnet-base-v2", "other-model"}, reg.Loaded())
}

func Test_Registry_FailedLoadIsRetried(t *testing.T) {
	loader := &countingLoader{ModelLoader: embeddings.ModelLoader{Dimension: 8}}
	loader.fail.Store(true)
	reg := embeddings.NewRegistry(loader)

	_, err := reg.Embedder(context.Background(), "m")
	require.Error(t, err)
	assert.Empty(t, reg.Loaded())

	loader.fail.Store(false)
	_, err = reg.Embedder(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.loads.Load())
}

func Test_ModelLoader_Rules(t *testing.T) {
	loader := &embeddings.ModelLoader{Dimension: 8}
	ctx := context.Background()

	_, err := loader.LoadEmbedder(ctx, "")
	assert.ErrorIs(t, err, embeddings.ErrEmptyModelName)

	_, err = loader.LoadEmbedder(ctx, "cross-encoder/ms-marco")
	assert.ErrorIs(t, err, embeddings.ErrWrongModelKind)

	_, err = loader.LoadCrossEncoder(ctx, "all-mpnet-base-v2")
	assert.ErrorIs(t, err, embeddings.ErrWrongModelKind)

	c, err := loader.LoadCrossEncoder(ctx, "cross-encoder/ms-marco")
	require.NoError(t, err)
	assert.Equal(t, "cross-encoder/ms-marco", c.ModelName())
}

func Test_ModelLoader_ModelDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saved")
	require.NoError(t, embeddings.SaveModel(embeddings.NewLocalModel("base", 12), dir))

	e, err := (&embeddings.ModelLoader{Dimension: 768}).LoadEmbedder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 12, e.Dimension())
	assert.Equal(t, "base", e.ModelName())
}

func Test_ModelLoader_Endpoint(t *testing.T) {
	srv := fakeEndpoint(t)
	e, err := (&embeddings.ModelLoader{Endpoint: srv.URL}).LoadEmbedder(context.Background(), "remote")
	require.NoError(t, err)
	assert.Equal(t, 3, e.Dimension())
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]float32
	puts int
}

func (m *mapCache) Get(model string, texts []string) ([][]float32, []bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vecs := make([][]float32, len(texts))
	hits := make([]bool, len(texts))
	for i, t := range texts {
		vecs[i], hits[i] = m.data[model+"|"+t]
	}
	return vecs, hits, nil
}

func (m *mapCache) Put(model string, texts []string, vecs [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	for i, t := range texts {
		m.data[model+"|"+t] = vecs[i]
	}
	return nil
}

func Test_CachedEmbedder(t *testing.T) {
	cache := &mapCache{data: map[string][]float32{}}
	inner := embeddings.NewLocal(8)
	e := embeddings.NewCached(inner, cache)

	first, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)

	second, err := e.EmbedTexts(context.Background(), []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[1])

	_, err = e.EmbedTexts(context.Background(), []string{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.puts)
}
