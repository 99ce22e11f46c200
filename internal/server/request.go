package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/0x5457/corpus-embeddings/internal/encoder"
)

var (
	ErrMissingTexts = errors.New("missing required field: texts")
	ErrInvalidTexts = errors.New("texts must be a string or an array of strings")
)

type embedRequest struct {
	Texts           json.RawMessage `json:"texts"`
	Multiprocessing *bool           `json:"multiprocessing"`
}

// decodeRequest accepts texts as an array of strings or as a single string.
func decodeRequest(r io.Reader) (encoder.Request, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return encoder.Request{}, fmt.Errorf("read request body: %w", err)
	}
	var raw embedRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return encoder.Request{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if len(raw.Texts) == 0 || string(raw.Texts) == "null" {
		return encoder.Request{}, ErrMissingTexts
	}
	req := encoder.Request{Multiprocessing: raw.Multiprocessing}
	var list []string
	if err := json.Unmarshal(raw.Texts, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		req.Texts = list
		return req, nil
	}
	var one string
	if err := json.Unmarshal(raw.Texts, &one); err == nil {
		req.Texts = []string{one}
		req.Single = true
		return req, nil
	}
	return encoder.Request{}, ErrInvalidTexts
}
