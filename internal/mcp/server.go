package mcp

import (
	"context"
	"fmt"

	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "corpus-embeddings/mcp"
	ServerVersion = "0.1.0"

	DefaultCrossEncoder = "cross-encoder/ms-marco-MiniLM-L-6-v2"
)

// Deps are the services the tools call into. Any of them may be nil; the
// matching tool then reports an error instead of failing the session.
type Deps struct {
	Encoder  *encoder.Service
	Search   *search.Service
	Registry *embeddings.Registry
}

type Server struct {
	deps   Deps
	server *server.MCPServer
}

// New returns an MCP server exposing the embedding, search and scoring tools.
func New(deps Deps) *server.MCPServer {
	srv := &Server{
		deps: deps,
		server: server.NewMCPServer(
			ServerName,
			ServerVersion,
			server.WithToolCapabilities(true),
		),
	}
	srv.server.AddTool(newEmbedDocumentsTool(), srv.handleEmbedDocuments)
	srv.server.AddTool(newSemanticSearchTool(), srv.handleSemanticSearch)
	srv.server.AddTool(newCrossEncodeTool(), srv.handleCrossEncode)
	return srv.server
}

func newEmbedDocumentsTool() mcp.Tool {
	return mcp.NewTool(
		"embed_documents",
		mcp.WithDescription("Embed a batch of documents with the loaded sentence model"),
		mcp.WithArray(
			"texts",
			mcp.Description("Documents to embed"),
			mcp.Required(),
			mcp.WithStringItems(),
		),
		mcp.WithBoolean(
			"multiprocessing",
			mcp.Description("Force (true) or forbid (false) the worker pool; omit for automatic"),
		),
	)
}

func newSemanticSearchTool() mcp.Tool {
	return mcp.NewTool(
		"semantic_search",
		mcp.WithDescription("Semantic search over the indexed corpus by natural language query"),
		mcp.WithString("query", mcp.Description("Natural language query"), mcp.Required()),
		mcp.WithNumber("top_k", mcp.Description("Top K results"), mcp.DefaultNumber(5)),
		mcp.WithBoolean(
			"rerank",
			mcp.Description("Rerank candidates with the cross-encoder"),
			mcp.DefaultBool(false),
		),
		mcp.WithNumber(
			"candidates",
			mcp.Description("Candidates fetched before reranking"),
			mcp.DefaultNumber(20),
		),
	)
}

func newCrossEncodeTool() mcp.Tool {
	return mcp.NewTool(
		"cross_encode",
		mcp.WithDescription("Score query/passage pairs with a cross-encoder"),
		mcp.WithString("query", mcp.Description("Query text"), mcp.Required()),
		mcp.WithArray(
			"passages",
			mcp.Description("Passages to score against the query"),
			mcp.Required(),
			mcp.WithStringItems(),
		),
		mcp.WithString(
			"model",
			mcp.Description("Cross-encoder model name"),
			mcp.DefaultString(DefaultCrossEncoder),
		),
	)
}

// Handlers
func (srv *Server) handleEmbedDocuments(
	ctx context.Context,
	req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	if srv.deps.Encoder == nil {
		return mcp.NewToolResultError("encoder not initialized"), nil
	}
	texts, err := req.RequireStringSlice("texts")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if texts == nil {
		texts = []string{}
	}
	var flag *bool
	if v, ok := req.GetArguments()["multiprocessing"].(bool); ok {
		flag = &v
	}
	res, err := srv.deps.Encoder.EmbedDocuments(ctx, encoder.Request{
		Texts:           texts,
		Multiprocessing: flag,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(res), nil
}

func (srv *Server) handleSemanticSearch(
	ctx context.Context,
	req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if srv.deps.Search == nil {
		return mcp.NewToolResultError("search service not initialized"), nil
	}
	topK := req.GetInt("top_k", 5)

	if req.GetBool("rerank", false) {
		hits, err := srv.deps.Search.SearchRerank(ctx, query, topK, req.GetInt("candidates", 20))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultStructuredOnly(hits), nil
	}

	hits, err := srv.deps.Search.Search(ctx, query, topK)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(hits), nil
}

type scoreResult struct {
	Model  string    `json:"model"`
	Scores []float32 `json:"scores"`
}

func (srv *Server) handleCrossEncode(
	ctx context.Context,
	req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	passages, err := req.RequireStringSlice("passages")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if srv.deps.Registry == nil {
		return mcp.NewToolResultError("model registry not initialized"), nil
	}
	name := req.GetString("model", DefaultCrossEncoder)
	ce, err := srv.deps.Registry.CrossEncoder(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load cross-encoder failed: %v", err)), nil
	}
	scores, err := ce.Score(ctx, query, passages)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(scoreResult{Model: ce.ModelName(), Scores: scores}), nil
}
