package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// ApiEmbedder delegates encoding to a managed embeddings endpoint.
type ApiEmbedder struct {
	url    string
	model  string
	dim    atomic.Int64
	client *http.Client
}

func NewApi(url, model string, timeout time.Duration) *ApiEmbedder {
	return &ApiEmbedder{url: url, model: model, client: &http.Client{Timeout: timeout}}
}

func (e *ApiEmbedder) ModelName() string { return e.model }

// Dimension is zero until the endpoint has returned at least one vector.
func (e *ApiEmbedder) Dimension() int { return int(e.dim.Load()) }

func (e *ApiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var embeddings [][]float32
	req := &apiRequest{Type: string(KindEmbedding), Model: e.model, Input: texts}
	if err := post(ctx, e.client, e.url, req, &embeddings); err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf(
			"embedding endpoint returned %d vectors for %d texts",
			len(embeddings),
			len(texts),
		)
	}
	e.dim.Store(int64(len(embeddings[0])))
	return embeddings, nil
}

func (e *ApiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

type ApiCrossEncoder struct {
	url    string
	model  string
	client *http.Client
}

func NewApiCrossEncoder(url, model string, timeout time.Duration) *ApiCrossEncoder {
	return &ApiCrossEncoder{url: url, model: model, client: &http.Client{Timeout: timeout}}
}

func (c *ApiCrossEncoder) ModelName() string { return c.model }

func (c *ApiCrossEncoder) Score(
	ctx context.Context,
	query string,
	passages []string,
) ([]float32, error) {
	if len(passages) == 0 {
		return []float32{}, nil
	}
	var scores []float32
	req := &apiRequest{
		Type:     string(KindCrossEncoder),
		Model:    c.model,
		Input:    query,
		Passages: passages,
	}
	if err := post(ctx, c.client, c.url, req, &scores); err != nil {
		return nil, err
	}
	if len(scores) != len(passages) {
		return nil, fmt.Errorf(
			"cross-encoder endpoint returned %d scores for %d passages",
			len(scores),
			len(passages),
		)
	}
	return scores, nil
}

type apiRequest struct {
	Type     string   `json:"type"`
	Model    string   `json:"model"`
	Input    any      `json:"input"`
	Passages []string `json:"passages,omitempty"`
}

func post(ctx context.Context, client *http.Client, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	response, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("model endpoint returned %d: %s", response.StatusCode, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(response.Body).Decode(out)
}
