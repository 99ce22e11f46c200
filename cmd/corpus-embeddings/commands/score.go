package commands

import (
	"context"
	"fmt"

	"github.com/0x5457/corpus-embeddings/cmd/cmdsfx"
	"github.com/0x5457/corpus-embeddings/internal/app/appfx"
	appmcp "github.com/0x5457/corpus-embeddings/internal/mcp"
	"github.com/spf13/cobra"
)

func NewScoreCommand() *cobra.Command {
	var (
		query string
		model string
	)

	cmd := &cobra.Command{
		Use:   "score --query q [passages...]",
		Short: "Score passages against a query with a cross-encoder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return fmt.Errorf("--query is required")
			}
			return runCommand(cmd.Context(), appfx.CommandModule,
				func(ctx context.Context, r *cmdsfx.CommandRunner) error {
					return r.RunScore(ctx, cmd.OutOrStdout(), model, query, args)
				},
			)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "query text")
	cmd.Flags().StringVar(&model, "model", appmcp.DefaultCrossEncoder, "cross-encoder model name")

	return cmd
}
