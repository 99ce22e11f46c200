package commands

import (
	"context"
	"fmt"

	"github.com/0x5457/corpus-embeddings/cmd/cmdsfx"
	"github.com/0x5457/corpus-embeddings/internal/app/appfx"
	"github.com/spf13/cobra"
)

func NewIndexCommand() *cobra.Command {
	var (
		corpus string
		dbPath string
		model  string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index a text corpus into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if corpus == "" {
				return fmt.Errorf("--corpus is required")
			}
			return runCommand(cmd.Context(), appfx.CorpusModule,
				func(ctx context.Context, r *cmdsfx.CommandRunner) error {
					return r.RunIndex(ctx, cmd.OutOrStdout(), corpus)
				},
				named("dbPath", dbPath),
				named("model", model),
			)
		},
	}

	cmd.Flags().StringVar(&corpus, "corpus", "", "path to corpus root")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite DB path (overrides EMBEDDING_DB_PATH)")
	cmd.Flags().StringVar(&model, "model", "", "model name or directory")

	return cmd
}
