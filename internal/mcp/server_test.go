package mcp

import (
	"context"
	"testing"

	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/models"
	"github.com/0x5457/corpus-embeddings/internal/search"
	"github.com/0x5457/corpus-embeddings/internal/storage/memory"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 16

func newTestServer(t *testing.T) *Server {
	t.Helper()
	emb := embeddings.NewLocal(testDim)
	enc, err := encoder.NewService(emb, encoder.Options{VectorSize: testDim, Workers: 2})
	require.NoError(t, err)

	store := memory.NewInMemoryVectorStore()
	docs := []models.Document{
		{ID: "1", Source: "a.txt", Content: "the cat sat on the mat"},
		{ID: "2", Source: "b.txt", Content: "stock markets fell sharply today"},
	}
	vecs, err := emb.EmbedTexts(context.Background(), []string{docs[0].Content, docs[1].Content})
	require.NoError(t, err)
	require.NoError(t, store.Upsert(docs, vecs))

	reg := embeddings.NewRegistry(&embeddings.ModelLoader{Dimension: testDim})
	return &Server{deps: Deps{
		Encoder:  enc,
		Search:   &search.Service{Embedder: emb, Vector: store, Reranker: embeddings.NewLocalCrossEncoder("ce", testDim)},
		Registry: reg,
	}}
}

func callReq(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New(Deps{}))
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		toolFunc func() mcp.Tool
		required []string
	}{
		{"embed_documents", newEmbedDocumentsTool, []string{"texts"}},
		{"semantic_search", newSemanticSearchTool, []string{"query"}},
		{"cross_encode", newCrossEncodeTool, []string{"query", "passages"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := tt.toolFunc()
			assert.Equal(t, tt.name, tool.Name)
			assert.NotEmpty(t, tool.Description)
			for _, p := range tt.required {
				assert.Contains(t, tool.InputSchema.Properties, p)
				assert.Contains(t, tool.InputSchema.Required, p)
			}
		})
	}
}

func TestEmbedDocumentsTool(t *testing.T) {
	tool := newEmbedDocumentsTool()
	textsProp := tool.InputSchema.Properties["texts"].(map[string]interface{})
	assert.Equal(t, "array", textsProp["type"])
	assert.Contains(t, tool.InputSchema.Properties, "multiprocessing")
}

func TestHandleEmbedDocuments(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	for _, mp := range []any{nil, true, false} {
		args := map[string]any{"texts": []any{"hello world", "second text"}}
		if mp != nil {
			args["multiprocessing"] = mp
		}
		result, err := srv.handleEmbedDocuments(ctx, callReq("embed_documents", args))
		require.NoError(t, err)
		require.False(t, result.IsError)

		res, ok := result.StructuredContent.(*models.EmbedResult)
		require.True(t, ok)
		assert.Len(t, res.Embeddings, 2)
		assert.Len(t, res.Embeddings[0], testDim)
		assert.Equal(t, "local-fixed(16)", res.Model)
	}
}

func TestHandleEmbedDocumentsEmpty(t *testing.T) {
	srv := newTestServer(t)
	result, err := srv.handleEmbedDocuments(
		context.Background(),
		callReq("embed_documents", map[string]any{"texts": []any{}}),
	)
	require.NoError(t, err)
	require.False(t, result.IsError)
	res := result.StructuredContent.(*models.EmbedResult)
	assert.NotNil(t, res.Embeddings)
	assert.Empty(t, res.Embeddings)
}

func TestHandleErrors(t *testing.T) {
	ctx := context.Background()
	empty := &Server{}

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
	}{
		{"embed without encoder", empty.handleEmbedDocuments, map[string]any{"texts": []any{"a"}}},
		{"embed missing texts", newTestServer(t).handleEmbedDocuments, map[string]any{}},
		{"search missing query", empty.handleSemanticSearch, map[string]any{}},
		{"search without service", empty.handleSemanticSearch, map[string]any{"query": "q"}},
		{"score missing passages", empty.handleCrossEncode, map[string]any{"query": "q"}},
		{"score without registry", empty.handleCrossEncode, map[string]any{
			"query":    "q",
			"passages": []any{"p"},
		}},
		{"score embedding model", newTestServer(t).handleCrossEncode, map[string]any{
			"query":    "q",
			"passages": []any{"p"},
			"model":    "all-mpnet-base-v2",
		}},
		{"score wrong model", newTestServer(t).handleCrossEncode, map[string]any{
			"query":    "q",
			"passages": []any{"p"},
			"model":    "",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(ctx, callReq("x", tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestHandleSemanticSearch(t *testing.T) {
	srv := newTestServer(t)
	result, err := srv.handleSemanticSearch(context.Background(), callReq("semantic_search", map[string]any{
		"query": "cat on a mat",
		"top_k": float64(1),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	hits := result.StructuredContent.([]models.SemanticHit)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.txt", hits[0].Document.Source)
}

func TestHandleSemanticSearchRerank(t *testing.T) {
	srv := newTestServer(t)
	result, err := srv.handleSemanticSearch(context.Background(), callReq("semantic_search", map[string]any{
		"query":      "cat on a mat",
		"top_k":      float64(2),
		"rerank":     true,
		"candidates": float64(5),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	hits := result.StructuredContent.([]search.RankedHit)
	require.Len(t, hits, 2)
	assert.GreaterOrEqual(t, hits[0].RerankScore, hits[1].RerankScore)
}

func TestHandleCrossEncode(t *testing.T) {
	srv := newTestServer(t)
	result, err := srv.handleCrossEncode(context.Background(), callReq("cross_encode", map[string]any{
		"query":    "cat",
		"passages": []any{"a cat", "a dog", "markets"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	res := result.StructuredContent.(scoreResult)
	assert.Equal(t, DefaultCrossEncoder, res.Model)
	assert.Len(t, res.Scores, 3)
}
