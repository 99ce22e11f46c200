package commands

import (
	"context"

	"github.com/0x5457/corpus-embeddings/cmd/cmdsfx"
	"github.com/0x5457/corpus-embeddings/internal/app/appfx"
	"github.com/spf13/cobra"
)

func NewSaveModelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save-model <name> <dir>",
		Short: "Load a model and save it to a directory usable as a model name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), appfx.CommandModule,
				func(ctx context.Context, r *cmdsfx.CommandRunner) error {
					return r.RunSaveModel(ctx, cmd.OutOrStdout(), args[0], args[1])
				},
			)
		},
	}
}
