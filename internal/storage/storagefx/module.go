package storagefx

import (
	"fmt"

	"github.com/0x5457/corpus-embeddings/internal/config"
	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/storage"
	"github.com/0x5457/corpus-embeddings/internal/storage/sqlite"
	"github.com/0x5457/corpus-embeddings/internal/storage/sqlvec"
	"go.uber.org/fx"
)

// Params represents dependencies for storage components
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
}

// NewVectorStore opens the corpus vector database
func NewVectorStore(params Params) (storage.VectorStore, error) {
	if params.Config.DBPath == "" {
		return nil, fmt.Errorf("database path must be specified")
	}
	store, err := sqlvec.New(params.Config.DBPath, 0)
	if err != nil {
		return nil, err
	}
	params.Lifecycle.Append(fx.StopHook(store.Close))
	return store, nil
}

// NewEmbeddingCache opens the embedding cache, or returns nil when no path is configured
func NewEmbeddingCache(params Params) (embeddings.Cache, error) {
	if params.Config.CachePath == "" {
		return nil, nil
	}
	cache, err := sqlite.NewCacheStore(params.Config.CachePath)
	if err != nil {
		return nil, err
	}
	params.Lifecycle.Append(fx.StopHook(cache.Close))
	return cache, nil
}

// CacheModule provides the optional embedding cache
var CacheModule = fx.Module("storage.cache",
	fx.Provide(NewEmbeddingCache),
)

// Module provides storage components
var Module = fx.Module("storage",
	fx.Provide(NewVectorStore),
)

var _ storage.EmbeddingCache = (*sqlite.CacheStore)(nil)
