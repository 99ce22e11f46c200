package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"golang.org/x/sync/errgroup"
)

const maxChunkSize = 5000

var ErrStopped = errors.New("pool is stopped")

// Pool fans an encode call out to a fixed number of workers sharing one model.
type Pool struct {
	embedder embeddings.Embedder
	workers  int
	stopped  bool
}

func Start(e embeddings.Embedder, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{embedder: e, workers: workers}
}

func (p *Pool) Workers() int { return p.workers }

// ChunkSize returns how many texts each task carries for a batch of n.
func ChunkSize(n, workers int) int {
	if workers <= 0 {
		workers = 1
	}
	size := (n + workers*10 - 1) / (workers * 10)
	if size > maxChunkSize {
		size = maxChunkSize
	}
	if size < 1 {
		size = 1
	}
	return size
}

type task struct {
	start int
	texts []string
}

// Encode returns vectors in input order. The first failing chunk cancels the rest.
func (p *Pool) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if p.stopped {
		return nil, ErrStopped
	}
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}
	size := ChunkSize(len(texts), p.workers)
	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan task)

	g.Go(func() error {
		defer close(tasks)
		for start := 0; start < len(texts); start += size {
			end := min(start+size, len(texts))
			select {
			case tasks <- task{start: start, texts: texts[start:end]}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < p.workers; w++ {
		g.Go(func() error {
			for t := range tasks {
				vecs, err := p.embedder.EmbedTexts(gctx, t.texts)
				if err != nil {
					return err
				}
				if len(vecs) != len(t.texts) {
					return fmt.Errorf("worker got %d vectors for %d texts", len(vecs), len(t.texts))
				}
				copy(out[t.start:], vecs)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stop releases the pool; later Encode calls fail.
func (p *Pool) Stop() { p.stopped = true }
