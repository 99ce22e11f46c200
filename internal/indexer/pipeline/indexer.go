package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/indexer"
	"github.com/0x5457/corpus-embeddings/internal/models"
	"github.com/0x5457/corpus-embeddings/internal/parser"
	"github.com/0x5457/corpus-embeddings/internal/parser/textparser"
	"github.com/0x5457/corpus-embeddings/internal/storage"
)

type Options struct {
	ParseWorkers   int
	EmbedBatchSize int
}

type Indexer struct {
	p   parser.Parser
	enc *encoder.Service
	vec storage.VectorStore
	opt Options
}

var _ indexer.Indexer = (*Indexer)(nil)

func New(
	p parser.Parser,
	enc *encoder.Service,
	v storage.VectorStore,
	opt Options,
) *Indexer {
	if opt.ParseWorkers <= 0 {
		opt.ParseWorkers = runtime.NumCPU()
	}
	if opt.EmbedBatchSize <= 0 {
		opt.EmbedBatchSize = 256
	}
	return &Indexer{p: p, enc: enc, vec: v, opt: opt}
}

func (i *Indexer) IndexCorpus(ctx context.Context, root string) error {
	return i.index(ctx, root, func(models.IndexProgress) {})
}

// IndexCorpusProgress indexes in the background. The progress channel closes
// when indexing ends; the error channel then yields the outcome.
func (i *Indexer) IndexCorpusProgress(
	ctx context.Context,
	root string,
) (<-chan models.IndexProgress, <-chan error) {
	progress := make(chan models.IndexProgress, 16)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		err := i.index(ctx, root, func(p models.IndexProgress) {
			select {
			case progress <- p:
			case <-ctx.Done():
			}
		})
		close(progress)
		errc <- err
	}()
	return progress, errc
}

type parseResult struct {
	file string
	docs []models.Document
	err  error
}

func (i *Indexer) index(ctx context.Context, root string, report func(models.IndexProgress)) error {
	report(models.IndexProgress{Stage: models.IndexStageScan, Message: "scanning " + root})
	files, err := listCorpusFiles(root)
	if err != nil {
		return err
	}
	st := models.IndexProgress{TotalFiles: len(files)}

	// Stage 1: parse files concurrently
	parseCh := make(chan string, len(files))
	resCh := make(chan parseResult, len(files))
	var wgParse sync.WaitGroup
	for w := 0; w < i.opt.ParseWorkers; w++ {
		wgParse.Add(1)
		go func() {
			defer wgParse.Done()
			for f := range parseCh {
				docs, err := i.p.ParseFileWithRoot(root, f)
				resCh <- parseResult{file: f, docs: docs, err: err}
			}
		}()
	}
	for _, f := range files {
		parseCh <- f
	}
	close(parseCh)
	go func() { wgParse.Wait(); close(resCh) }()

	// Stage 2: collect and embed in batches
	var batch []models.Document
	flush := func(docs []models.Document) error {
		if len(docs) == 0 {
			return nil
		}
		st.Stage = models.IndexStageEmbed
		report(st.WithPercent())
		if err := i.embedAndStore(ctx, docs); err != nil {
			return err
		}
		st.EmbeddedChunks += len(docs)
		return nil
	}
	for r := range resCh {
		if r.err != nil {
			return fmt.Errorf("parse %s: %w", r.file, r.err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(r.docs) > 0 {
			if err := i.vec.DeleteBySource(r.docs[0].Source); err != nil {
				return err
			}
		}
		st.Stage = models.IndexStageParse
		st.ParsedFiles++
		st.TotalChunks += len(r.docs)
		st.CurrentFile = r.file
		report(st.WithPercent())

		batch = append(batch, r.docs...)
		for len(batch) >= i.opt.EmbedBatchSize {
			if err := flush(batch[:i.opt.EmbedBatchSize]); err != nil {
				return err
			}
			batch = batch[i.opt.EmbedBatchSize:]
		}
	}
	if err := flush(batch); err != nil {
		return err
	}
	st.Stage = models.IndexStageDone
	st.CurrentFile = ""
	st.Message = fmt.Sprintf("indexed %d chunks from %d files", st.EmbeddedChunks, st.ParsedFiles)
	report(st.WithPercent())
	return nil
}

// IndexFile re-indexes one file; its documents are keyed by the given path.
func (i *Indexer) IndexFile(ctx context.Context, path string) error {
	if err := i.vec.DeleteBySource(path); err != nil {
		return err
	}
	docs, err := i.p.ParseFile(path)
	if err != nil {
		return err
	}
	return i.embedAndStore(ctx, docs)
}

func (i *Indexer) embedAndStore(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for idx, d := range docs {
		texts[idx] = d.Content
	}
	vecs, err := i.enc.Encode(ctx, texts, encoder.ShouldUsePool(texts, false, nil))
	if err != nil {
		return err
	}
	return i.vec.Upsert(docs, vecs)
}

func (i *Indexer) SearchSemantic(
	ctx context.Context,
	query string,
	topK int,
) ([]models.SemanticHit, error) {
	vec, err := i.enc.Embedder().EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return i.vec.Query(vec, topK)
}

func listCorpusFiles(root string) ([]string, error) {
	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if textparser.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, walkErr
}
