package embeddingsfx

import (
	"context"
	"testing"

	"github.com/0x5457/corpus-embeddings/internal/config"
	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func TestEmbeddingsModule(t *testing.T) {
	var (
		reg *embeddings.Registry
		emb embeddings.Embedder
	)
	app := fx.New(
		Module,
		fx.Supply(
			&config.Config{Model: "all-mpnet-base-v2", VectorSize: 32, HTTPTimeoutSeconds: 1},
			zap.NewNop(),
		),
		fx.Populate(&reg, &emb),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer func() {
		require.NoError(t, app.Stop(ctx))
	}()

	assert.Equal(t, "all-mpnet-base-v2", emb.ModelName())
	assert.Equal(t, 32, emb.Dimension())
	assert.Equal(t, []string{"all-mpnet-base-v2"}, reg.Loaded())
}
