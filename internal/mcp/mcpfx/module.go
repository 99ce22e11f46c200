package mcpfx

import (
	"context"
	"fmt"

	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/indexer"
	appmcp "github.com/0x5457/corpus-embeddings/internal/mcp"
	"github.com/0x5457/corpus-embeddings/internal/search"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params represents dependencies for MCP server
type Params struct {
	fx.In

	Encoder  *encoder.Service     `optional:"true"`
	Search   *search.Service      `optional:"true"`
	Registry *embeddings.Registry `optional:"true"`
	Indexer  indexer.Indexer      `optional:"true"`
	Logger   *zap.Logger          `optional:"true"`
	Corpus   string               `optional:"true" name:"corpus"`
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(params Params) *server.MCPServer {
	return appmcp.New(appmcp.Deps{
		Encoder:  params.Encoder,
		Search:   params.Search,
		Registry: params.Registry,
	})
}

// Lifecycle pre-indexes the corpus before the MCP server starts answering.
type Lifecycle struct {
	indexer indexer.Indexer
	corpus  string
	log     *zap.Logger
}

func NewLifecycle(params Params) *Lifecycle {
	log := params.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Lifecycle{indexer: params.Indexer, corpus: params.Corpus, log: log}
}

func (m *Lifecycle) Start(ctx context.Context) error {
	if m.corpus == "" {
		return nil
	}
	if m.indexer == nil {
		return fmt.Errorf("pre-index corpus %s: indexer not available", m.corpus)
	}
	if err := m.indexer.IndexCorpus(ctx, m.corpus); err != nil {
		return fmt.Errorf("pre-index corpus failed: %w", err)
	}
	m.log.Info("corpus indexed", zap.String("corpus", m.corpus))
	return nil
}

func (m *Lifecycle) Stop(context.Context) error { return nil }

// Register appends the lifecycle hooks to the application.
func Register(lc fx.Lifecycle, m *Lifecycle) {
	lc.Append(fx.Hook{OnStart: m.Start, OnStop: m.Stop})
}

// Module provides MCP server components
var Module = fx.Module("mcp",
	fx.Provide(
		NewMCPServer,
		NewLifecycle,
	),
	fx.Invoke(Register),
)
