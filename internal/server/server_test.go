package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/metrics"
	"github.com/0x5457/corpus-embeddings/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, e embeddings.Embedder, m *metrics.Metrics) *httptest.Server {
	t.Helper()
	svc, err := encoder.NewService(e, encoder.Options{VectorSize: 768, Workers: 4, Metrics: m})
	require.NoError(t, err)
	ts := httptest.NewServer(New(svc, "localhost:0", nil, m).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func embed(t *testing.T, url, body string) models.EmbedResult {
	t.Helper()
	resp, raw := post(t, url+"/embed-documents", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, raw)
	var res models.EmbedResult
	require.NoError(t, json.Unmarshal([]byte(raw), &res))
	return res
}

func TestEmbedDocuments(t *testing.T) {
	ts := newTestServer(t, embeddings.NewLocalModel("all-mpnet-base-v2", 768), nil)

	resp, raw := post(t, ts.URL+"/embed-documents", `{"texts":["hello","world"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var res models.EmbedResult
	require.NoError(t, json.Unmarshal([]byte(raw), &res))
	assert.Equal(t, "all-mpnet-base-v2(768)", res.Model)
	require.Len(t, res.Embeddings, 2)
	assert.Len(t, res.Embeddings[0], 768)
	assert.NotEqual(t, res.Embeddings[0], res.Embeddings[1])
}

func TestEmbedDocumentsPreservesOrder(t *testing.T) {
	ts := newTestServer(t, embeddings.NewLocalModel("all-mpnet-base-v2", 768), nil)
	texts := []string{"c", "a", "b"}
	body, _ := json.Marshal(map[string]any{"texts": texts})
	all := embed(t, ts.URL, string(body))
	require.Len(t, all.Embeddings, 3)
	for i, text := range texts {
		one := embed(t, ts.URL, fmt.Sprintf(`{"texts":[%q]}`, text))
		assert.Equal(t, one.Embeddings[0], all.Embeddings[i])
	}
}

func TestEmbedDocumentsLabelStripsNamespace(t *testing.T) {
	ts := newTestServer(t, embeddings.NewLocalModel("sentence-transformers/all-MiniLM-L6-v2", 768), nil)
	res := embed(t, ts.URL, `{"texts":["x"]}`)
	assert.Equal(t, "all-MiniLM-L6-v2(768)", res.Model)
}

func TestGetIsMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, embeddings.NewLocal(8), nil)
	for _, path := range []string{"/", "/embed-documents", "/anything/else"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
		assert.Equal(t, "Method not allowed", string(b))
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	}
}

func TestUnknownPostPathIsNotFound(t *testing.T) {
	ts := newTestServer(t, embeddings.NewLocal(8), nil)
	for _, path := range []string{"/", "/embed", "/embed-documents/extra"} {
		resp, body := post(t, ts.URL+path, `{"texts":["a"]}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "Not found", body)
	}
}

func TestOtherMethodsAreNotAllowed(t *testing.T) {
	ts := newTestServer(t, embeddings.NewLocal(8), nil)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/embed-documents", bytes.NewBufferString("{}"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t, embeddings.NewLocal(8), nil)
	cases := map[string]string{
		"missing texts":    `{}`,
		"null texts":       `{"texts":null}`,
		"malformed json":   `{"texts":`,
		"wrong texts type": `{"texts":42}`,
		"mixed array":      `{"texts":["a",1]}`,
		"non bool flag":    `{"texts":["a"],"multiprocessing":"yes"}`,
		"not an object":    `["a"]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, msg := post(t, ts.URL+"/embed-documents", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, msg)
		})
	}

	resp, msg := post(t, ts.URL+"/embed-documents", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, ErrMissingTexts.Error(), msg)
}

func TestEmptyList(t *testing.T) {
	ts := newTestServer(t, embeddings.NewLocal(8), nil)
	resp, raw := post(t, ts.URL+"/embed-documents", `{"texts":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"embeddings":[],"model":"local-fixed(768)"}`, raw)
}

func TestSingleStringTexts(t *testing.T) {
	m := metrics.New()
	ts := newTestServer(t, embeddings.NewLocal(8), m)
	long := strings.Repeat("word ", 3000)
	res := embed(t, ts.URL, fmt.Sprintf(`{"texts":%q}`, long))
	require.Len(t, res.Embeddings, 1)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.EncodeBatchesTotal.WithLabelValues(metrics.ModePool)))
}

func TestAutoPoolMatchesForcedSingle(t *testing.T) {
	m := metrics.New()
	ts := newTestServer(t, embeddings.NewLocalModel("all-mpnet-base-v2", 768), m)
	texts := make([]string, 50)
	for i := range texts {
		texts[i] = fmt.Sprintf("%d %s", i, strings.Repeat("lorem ipsum dolor ", 12))
	}
	body, _ := json.Marshal(map[string]any{"texts": texts})
	forced, _ := json.Marshal(map[string]any{"texts": texts, "multiprocessing": false})

	auto := embed(t, ts.URL, string(body))
	single := embed(t, ts.URL, string(forced))
	assert.Equal(t, single, auto)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EncodeBatchesTotal.WithLabelValues(metrics.ModePool)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EncodeBatchesTotal.WithLabelValues(metrics.ModeSingle)))
}

func TestRepeatedRequestsAreIdentical(t *testing.T) {
	ts := newTestServer(t, embeddings.NewLocal(8), nil)
	a := embed(t, ts.URL, `{"texts":["same","input"],"multiprocessing":true}`)
	b := embed(t, ts.URL, `{"texts":["same","input"]}`)
	assert.Equal(t, a, b)
}

type panicEmbedder struct{ *embeddings.LocalEmbedder }

func (panicEmbedder) EmbedTexts(context.Context, []string) ([][]float32, error) {
	panic("model exploded")
}

func TestPanicIsBadRequestAndServerSurvives(t *testing.T) {
	ts := newTestServer(t, panicEmbedder{embeddings.NewLocal(8)}, nil)
	resp, msg := post(t, ts.URL+"/embed-documents", `{"texts":["a"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, msg, "model exploded")

	resp, _ = post(t, ts.URL+"/nope", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestMetrics(t *testing.T) {
	m := metrics.New()
	ts := newTestServer(t, embeddings.NewLocal(8), m)
	embed(t, ts.URL, `{"texts":["a"]}`)
	post(t, ts.URL+"/embed-documents", `{}`)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("400")))
}

func TestStartAndShutdown(t *testing.T) {
	svc, err := encoder.NewService(embeddings.NewLocal(8), encoder.Options{VectorSize: 8})
	require.NoError(t, err)
	s := New(svc, "127.0.0.1:0", nil, nil)
	require.NoError(t, s.Start(context.Background()))

	resp, body := post(t, "http://"+s.Addr()+"/embed-documents", `{"texts":["a"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.NoError(t, s.Shutdown(context.Background()))
}
