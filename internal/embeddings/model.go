package embeddings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Kind string

const (
	KindEmbedding    Kind = "embedding"
	KindCrossEncoder Kind = "cross-encoder"
)

const modelConfigFile = "config.json"

// KindOf classifies a model by the first segment of its name.
func KindOf(name string) Kind {
	first, _, _ := strings.Cut(name, "/")
	if first == string(KindCrossEncoder) {
		return KindCrossEncoder
	}
	return KindEmbedding
}

// ShortName returns the text after the last "/" of a model name.
func ShortName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Label is the model identifier reported with every embedding response.
func Label(name string, vectorSize int) string {
	return fmt.Sprintf("%s(%d)", ShortName(name), vectorSize)
}

func withQueryPrefix(name, text string) string {
	if strings.HasPrefix(name, "intfloat/multilingual-e5") {
		return "query: " + text
	}
	return text
}

type ModelConfig struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Kind      Kind   `json:"kind"`
}

// SaveModel writes a model directory that LoadModelDir can restore.
func SaveModel(e Embedder, dir string) error {
	if e.Dimension() <= 0 {
		return fmt.Errorf("model %s has no known dimension", e.ModelName())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&ModelConfig{
		Name:      e.ModelName(),
		Dimension: e.Dimension(),
		Kind:      KindEmbedding,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, modelConfigFile), data, 0o644)
}

func LoadModelDir(dir string) (*LocalEmbedder, error) {
	data, err := os.ReadFile(filepath.Join(dir, modelConfigFile))
	if err != nil {
		return nil, err
	}
	var cfg ModelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", modelConfigFile, err)
	}
	if cfg.Kind != "" && cfg.Kind != KindEmbedding {
		return nil, fmt.Errorf("%w: %s holds a %s model", ErrWrongModelKind, dir, cfg.Kind)
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("model config has no dimension")
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(dir)
	}
	return NewLocalModel(cfg.Name, cfg.Dimension), nil
}

func isModelDir(name string) bool {
	info, err := os.Stat(filepath.Join(name, modelConfigFile))
	return err == nil && !info.IsDir()
}

// CheckDimension reports whether the model's vectors match the configured size.
func CheckDimension(e Embedder, vectorSize int) error {
	if d := e.Dimension(); d > 0 && d != vectorSize {
		return fmt.Errorf("%w: %s produces %d, configured %d",
			ErrDimensionMismatch, e.ModelName(), d, vectorSize)
	}
	return nil
}
