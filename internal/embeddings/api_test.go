package embeddings_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type     string          `json:"type"`
			Model    string          `json:"model"`
			Input    json.RawMessage `json:"input"`
			Passages []string        `json:"passages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch req.Type {
		case "embedding":
			var input []string
			_ = json.Unmarshal(req.Input, &input)
			out := make([][]float32, len(input))
			for i, s := range input {
				out[i] = []float32{float32(len(s)), 1, 0}
			}
			_ = json.NewEncoder(w).Encode(out)
		case "cross-encoder":
			out := make([]float32, len(req.Passages))
			for i := range req.Passages {
				out[i] = float32(i) / 10
			}
			_ = json.NewEncoder(w).Encode(out)
		default:
			http.Error(w, "unknown model", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func Test_ApiEmbedder_EmbedTexts(t *testing.T) {
	srv := fakeEndpoint(t)
	e := embeddings.NewApi(srv.URL, "remote-model", time.Second)
	assert.Equal(t, 0, e.Dimension())

	vecs, err := e.EmbedTexts(context.Background(), []string{"ab", "abcd"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 1, 0}, {4, 1, 0}}, vecs)
	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, "remote-model", e.ModelName())
}

func Test_ApiEmbedder_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := embeddings.NewApi(srv.URL, "missing", time.Second).EmbedQuery(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func Test_ApiEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1,2]]`))
	}))
	defer srv.Close()

	_, err := embeddings.NewApi(srv.URL, "m", time.Second).
		EmbedTexts(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func Test_ApiCrossEncoder_Score(t *testing.T) {
	srv := fakeEndpoint(t)
	c := embeddings.NewApiCrossEncoder(srv.URL, "cross-encoder/x", time.Second)
	scores, err := c.Score(context.Background(), "q", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.1, 0.2}, scores)
}
