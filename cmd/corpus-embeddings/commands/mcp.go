package commands

import (
	"context"

	"github.com/0x5457/corpus-embeddings/cmd/cmdsfx"
	"github.com/0x5457/corpus-embeddings/internal/app/appfx"
	"github.com/spf13/cobra"
)

// NewMCPServeCommand serves the embedding, search and scoring tools over MCP.
func NewMCPServeCommand() *cobra.Command {
	var (
		corpus      string
		dbPath      string
		model       string
		rerankModel string
		transport   string
		address     string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run MCP server",
		Long:  "Run MCP server exposing embed_documents, semantic_search and cross_encode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), appfx.CorpusModule,
				func(ctx context.Context, r *cmdsfx.CommandRunner) error {
					return r.RunMCPServer(ctx, transport, address)
				},
				named("corpus", corpus),
				named("dbPath", dbPath),
				named("model", model),
				named("rerankModel", rerankModel),
			)
		},
	}

	cmd.Flags().StringVarP(&corpus, "corpus", "c", "", "corpus root to index before serving")
	cmd.Flags().StringVarP(&dbPath, "db", "d", "", "SQLite DB path")
	cmd.Flags().StringVar(&model, "model", "", "model name or directory")
	cmd.Flags().StringVar(&rerankModel, "rerank-model", "", "cross-encoder used by semantic_search rerank")
	cmd.Flags().
		StringVarP(&transport, "transport", "t", cmdsfx.TransportStdio, "transport (stdio, http, sse)")
	cmd.Flags().StringVarP(&address, "address", "a", "", "server address (http modes), e.g. :8080")

	return cmd
}
