package encoder

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/0x5457/corpus-embeddings/internal/constants"
	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/encoder/pool"
	"github.com/0x5457/corpus-embeddings/internal/metrics"
	"github.com/0x5457/corpus-embeddings/internal/models"
	"go.uber.org/zap"
)

// Request is one batch to embed. Single marks a bare string input.
type Request struct {
	Texts           []string
	Single          bool
	Multiprocessing *bool
}

type Options struct {
	// ModelName is the configured model name used in the label; defaults to
	// the embedder's own name.
	ModelName       string
	VectorSize      int
	Workers         int
	StrictDimension bool
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

// Service embeds document batches with the loaded model, choosing between
// in-process encoding and a worker pool.
type Service struct {
	embedder embeddings.Embedder
	opts     Options
	log      *zap.Logger
}

func NewService(e embeddings.Embedder, opts Options) (*Service, error) {
	if opts.Workers <= 0 {
		opts.Workers = constants.DefaultPoolWorkers
	}
	if opts.VectorSize <= 0 {
		opts.VectorSize = e.Dimension()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := embeddings.CheckDimension(e, opts.VectorSize); err != nil {
		if opts.StrictDimension {
			return nil, err
		}
		log.Warn("model dimension differs from vector size", zap.Error(err))
	}
	return &Service{embedder: e, opts: opts, log: log}, nil
}

func (s *Service) Embedder() embeddings.Embedder { return s.embedder }

// Label is the model identifier returned with each result.
func (s *Service) Label() string {
	name := s.opts.ModelName
	if name == "" {
		name = s.embedder.ModelName()
	}
	return embeddings.Label(name, s.opts.VectorSize)
}

// Warmup runs one query through the model, bypassing the cache and metrics.
func (s *Service) Warmup(ctx context.Context) error {
	e := s.embedder
	if c, ok := e.(interface{ Unwrap() embeddings.Embedder }); ok {
		e = c.Unwrap()
	}
	_, err := e.EmbedQuery(ctx, "warmup")
	return err
}

// ShouldUsePool decides the dispatch mode. A bare string never uses the pool,
// an explicit flag wins otherwise, and large batches go to the pool.
func ShouldUsePool(texts []string, single bool, flag *bool) bool {
	if single {
		return false
	}
	if flag != nil {
		return *flag
	}
	return charCount(texts) >= constants.AutoPoolThreshold
}

func charCount(texts []string) int {
	n := 0
	for _, t := range texts {
		n += utf8.RuneCountInString(t)
	}
	return n
}

func (s *Service) EmbedDocuments(ctx context.Context, req Request) (*models.EmbedResult, error) {
	vecs, err := s.Encode(ctx, req.Texts, ShouldUsePool(req.Texts, req.Single, req.Multiprocessing))
	if err != nil {
		return nil, err
	}
	return &models.EmbedResult{Embeddings: vecs, Model: s.Label()}, nil
}

// Encode embeds texts in order, through a per-call pool when usePool is set.
func (s *Service) Encode(ctx context.Context, texts []string, usePool bool) ([][]float32, error) {
	if texts == nil {
		return nil, errors.New("texts must not be null")
	}
	mode := metrics.ModeSingle
	if usePool {
		mode = metrics.ModePool
	}
	start := time.Now()
	var (
		vecs [][]float32
		err  error
	)
	if len(texts) == 0 {
		vecs = [][]float32{}
	} else if usePool {
		p := pool.Start(s.embedder, s.opts.Workers)
		vecs, err = p.Encode(ctx, texts)
		p.Stop()
	} else {
		vecs, err = s.embedder.EmbedTexts(ctx, texts)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %d texts: %w", len(texts), err)
	}
	s.opts.Metrics.RecordEncode(mode, len(texts))
	s.log.Debug("encoded texts",
		zap.String("mode", mode),
		zap.Int("texts", len(texts)),
		zap.Int("chars", charCount(texts)),
		zap.Duration("took", time.Since(start)),
	)
	return vecs, nil
}
