package embeddings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Loader interface {
	LoadEmbedder(ctx context.Context, name string) (Embedder, error)
	LoadCrossEncoder(ctx context.Context, name string) (CrossEncoder, error)
}

// ModelLoader resolves a model name to a saved model directory, the managed
// endpoint when one is configured, or the local model otherwise.
type ModelLoader struct {
	Endpoint  string
	Dimension int
	Timeout   time.Duration
	Cache     Cache
	Logger    *zap.Logger
}

func (l *ModelLoader) LoadEmbedder(ctx context.Context, name string) (Embedder, error) {
	if name == "" {
		return nil, ErrEmptyModelName
	}
	if KindOf(name) == KindCrossEncoder {
		return nil, fmt.Errorf("%w: %s is a cross-encoder", ErrWrongModelKind, name)
	}
	var e Embedder
	switch {
	case isModelDir(name):
		m, err := LoadModelDir(name)
		if err != nil {
			return nil, fmt.Errorf("load model dir %s: %w", name, err)
		}
		e = m
	case l.Endpoint != "":
		api := NewApi(l.Endpoint, name, l.Timeout)
		if _, err := api.EmbedQuery(ctx, "warmup"); err != nil {
			return nil, fmt.Errorf("load model %s: %w", name, err)
		}
		e = api
	default:
		e = NewLocalModel(name, l.Dimension)
	}
	l.logger().Info("model loaded",
		zap.String("model", name),
		zap.Int("dimension", e.Dimension()),
	)
	if l.Cache != nil {
		return NewCached(e, l.Cache), nil
	}
	return e, nil
}

func (l *ModelLoader) LoadCrossEncoder(ctx context.Context, name string) (CrossEncoder, error) {
	if name == "" {
		return nil, ErrEmptyModelName
	}
	if KindOf(name) != KindCrossEncoder {
		return nil, fmt.Errorf("%w: %s is not a cross-encoder", ErrWrongModelKind, name)
	}
	l.logger().Info("cross-encoder loaded", zap.String("model", name))
	if l.Endpoint != "" {
		return NewApiCrossEncoder(l.Endpoint, name, l.Timeout), nil
	}
	return NewLocalCrossEncoder(name, l.Dimension), nil
}

func (l *ModelLoader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// Registry loads each model at most once per process. A failed load is not
// cached, so the next caller retries.
type Registry struct {
	loader Loader

	mu       sync.Mutex
	encoders map[string]*slot[Embedder]
	scorers  map[string]*slot[CrossEncoder]
}

func NewRegistry(loader Loader) *Registry {
	return &Registry{
		loader:   loader,
		encoders: map[string]*slot[Embedder]{},
		scorers:  map[string]*slot[CrossEncoder]{},
	}
}

func (r *Registry) Embedder(ctx context.Context, name string) (Embedder, error) {
	return load(ctx, &r.mu, r.encoders, name, r.loader.LoadEmbedder)
}

func (r *Registry) CrossEncoder(ctx context.Context, name string) (CrossEncoder, error) {
	return load(ctx, &r.mu, r.scorers, name, r.loader.LoadCrossEncoder)
}

// Loaded lists the names of successfully loaded embedding models.
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for name, s := range r.encoders {
		select {
		case <-s.done:
			if s.err == nil {
				names = append(names, name)
			}
		default:
		}
	}
	return names
}

type slot[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func load[T any](
	ctx context.Context,
	mu *sync.Mutex,
	slots map[string]*slot[T],
	name string,
	fn func(context.Context, string) (T, error),
) (T, error) {
	mu.Lock()
	if s, ok := slots[name]; ok {
		mu.Unlock()
		select {
		case <-s.done:
			return s.val, s.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	s := &slot[T]{done: make(chan struct{})}
	slots[name] = s
	mu.Unlock()

	s.val, s.err = fn(ctx, name)
	if s.err != nil {
		mu.Lock()
		delete(slots, name)
		mu.Unlock()
	}
	close(s.done)
	return s.val, s.err
}
