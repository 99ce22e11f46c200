package commands

import (
	"context"

	"github.com/0x5457/corpus-embeddings/cmd/cmdsfx"
	"github.com/0x5457/corpus-embeddings/internal/app/appfx"
	"github.com/spf13/cobra"
)

func NewSearchCommand() *cobra.Command {
	var (
		dbPath      string
		model       string
		topK        int
		rerankModel string
		candidates  int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Semantic search over an indexed corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rerankModel == "" {
				candidates = 0
			}
			return runCommand(cmd.Context(), appfx.CorpusModule,
				func(ctx context.Context, r *cmdsfx.CommandRunner) error {
					return r.RunSearch(ctx, cmd.OutOrStdout(), args[0], topK, candidates)
				},
				named("dbPath", dbPath),
				named("model", model),
				named("rerankModel", rerankModel),
			)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite DB path (overrides EMBEDDING_DB_PATH)")
	cmd.Flags().StringVar(&model, "model", "", "model name or directory")
	cmd.Flags().IntVar(&topK, "top-k", 5, "Top K results")
	cmd.Flags().StringVar(&rerankModel, "rerank-model", "", "cross-encoder used to rerank candidates")
	cmd.Flags().IntVar(&candidates, "candidates", 20, "candidates fetched before reranking")

	return cmd
}
