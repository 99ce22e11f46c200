package cmdsfx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/0x5457/corpus-embeddings/internal/config"
	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/indexer"
	"github.com/0x5457/corpus-embeddings/internal/models"
	"github.com/0x5457/corpus-embeddings/internal/search"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"

	defaultMCPAddress = ":8080"
)

// CommandRunner provides methods to run different application commands
type CommandRunner struct {
	config        *config.Config
	log           *zap.Logger
	encoder       *encoder.Service
	registry      *embeddings.Registry
	searchService *search.Service
	indexer       indexer.Indexer
	mcpServer     *server.MCPServer
}

// Params represents dependencies for command runner
type Params struct {
	fx.In

	Config        *config.Config
	Logger        *zap.Logger
	Encoder       *encoder.Service     `optional:"true"`
	Registry      *embeddings.Registry `optional:"true"`
	SearchService *search.Service      `optional:"true"`
	Indexer       indexer.Indexer      `optional:"true"`
	MCPServer     *server.MCPServer    `optional:"true"`
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(params Params) *CommandRunner {
	return &CommandRunner{
		config:        params.Config,
		log:           params.Logger,
		encoder:       params.Encoder,
		registry:      params.Registry,
		searchService: params.SearchService,
		indexer:       params.Indexer,
		mcpServer:     params.MCPServer,
	}
}

// RunEmbed embeds texts the way POST /embed-documents does and writes the JSON result.
func (r *CommandRunner) RunEmbed(
	ctx context.Context,
	w io.Writer,
	texts []string,
	multiprocessing *bool,
) error {
	if r.encoder == nil {
		return fmt.Errorf("encoder not available")
	}
	res, err := r.encoder.EmbedDocuments(ctx, encoder.Request{
		Texts:           texts,
		Multiprocessing: multiprocessing,
	})
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(res)
}

// RunScore scores each passage against query with the named cross-encoder.
func (r *CommandRunner) RunScore(
	ctx context.Context,
	w io.Writer,
	model, query string,
	passages []string,
) error {
	if r.registry == nil {
		return fmt.Errorf("model registry not available")
	}
	ce, err := r.registry.CrossEncoder(ctx, model)
	if err != nil {
		return err
	}
	scores, err := ce.Score(ctx, query, passages)
	if err != nil {
		return err
	}
	for i, p := range passages {
		fmt.Fprintf(w, "[%.4f] %s\n", scores[i], p)
	}
	return nil
}

// RunSaveModel loads the named model and writes it to dir.
func (r *CommandRunner) RunSaveModel(ctx context.Context, w io.Writer, name, dir string) error {
	if r.registry == nil {
		return fmt.Errorf("model registry not available")
	}
	e, err := r.registry.Embedder(ctx, name)
	if err != nil {
		return err
	}
	if err := embeddings.SaveModel(e, dir); err != nil {
		return err
	}
	fmt.Fprintf(w, "saved %s to %s\n", name, dir)
	return nil
}

// RunIndex executes the index command
func (r *CommandRunner) RunIndex(ctx context.Context, w io.Writer, corpus string) error {
	if r.indexer == nil {
		return fmt.Errorf("indexer not available")
	}

	// Run indexing with progress
	progCh, errCh := r.indexer.IndexCorpusProgress(ctx, corpus)
	for progCh != nil || errCh != nil {
		select {
		case p, ok := <-progCh:
			if !ok {
				progCh = nil
				continue
			}
			fmt.Fprintf(w, "\r[%3.0f%%] stage=%s files:%d/%d chunks:%d/%d %-40s",
				p.Percent,
				p.Stage,
				p.ParsedFiles, p.TotalFiles,
				p.EmbeddedChunks, p.TotalChunks,
				p.CurrentFile,
			)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				fmt.Fprintln(w)
				return err
			}
		case <-ctx.Done():
			fmt.Fprintln(w)
			return ctx.Err()
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "index completed")
	return nil
}

// RunSearch executes semantic search, reranking when candidates > 0
func (r *CommandRunner) RunSearch(
	ctx context.Context,
	w io.Writer,
	query string,
	topK, candidates int,
) error {
	if r.searchService == nil {
		return fmt.Errorf("search service not available")
	}

	if candidates > 0 {
		ranked, err := r.searchService.SearchRerank(ctx, query, topK, candidates)
		if err != nil {
			return err
		}
		for i, h := range ranked {
			fmt.Fprintf(w, "Result %d (score: %.4f, rerank: %.4f):\n",
				i+1, h.Hit.Score, h.RerankScore)
			printHit(w, h.Hit.Document)
		}
		return nil
	}

	hits, err := r.searchService.Search(ctx, query, topK)
	if err != nil {
		return err
	}
	for i, hit := range hits {
		fmt.Fprintf(w, "Result %d (score: %.4f):\n", i+1, hit.Score)
		printHit(w, hit.Document)
	}
	return nil
}

func printHit(w io.Writer, doc models.Document) {
	fmt.Fprintf(w, "File: %s\n", doc.Source)
	if doc.Category != "" {
		fmt.Fprintf(w, "Category: %s\n", doc.Category)
	}
	fmt.Fprintf(w, "Lines: %d-%d\n", doc.StartLine, doc.EndLine)
	fmt.Fprintf(w, "Content: %s\n\n", doc.Content)
}

// RunMCPServer serves the MCP tools until ctx is cancelled or the transport fails
func (r *CommandRunner) RunMCPServer(ctx context.Context, transport, address string) error {
	if r.mcpServer == nil {
		return fmt.Errorf("MCP server not available")
	}
	if address == "" {
		address = defaultMCPAddress
	}

	switch transport {
	case TransportStdio:
		return server.ServeStdio(r.mcpServer)
	case TransportHTTP:
		httpSrv := server.NewStreamableHTTPServer(r.mcpServer)
		r.log.Info("serving mcp", zap.String("transport", transport), zap.String("addr", address))
		return serveUntilDone(ctx, func() error { return httpSrv.Start(address) }, httpSrv.Shutdown)
	case TransportSSE:
		// SSE server exposes two endpoints under /mcp
		sseSrv := server.NewSSEServer(r.mcpServer,
			server.WithBaseURL(""),
			server.WithStaticBasePath("/mcp"),
		)
		r.log.Info("serving mcp", zap.String("transport", transport), zap.String("addr", address))
		return serveUntilDone(ctx, func() error { return sseSrv.Start(address) }, sseSrv.Shutdown)
	default:
		return fmt.Errorf(
			"unsupported transport: %s (supported: stdio, http, sse)",
			transport,
		)
	}
}

func serveUntilDone(
	ctx context.Context,
	start func() error,
	shutdown func(context.Context) error,
) error {
	errc := make(chan error, 1)
	go func() { errc <- start() }()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
		defer cancel()
		return shutdown(sctx)
	}
}

// Module provides command runner
var Module = fx.Module("commands",
	fx.Provide(NewCommandRunner),
)
