package commands

import (
	"context"
	"fmt"

	"github.com/0x5457/corpus-embeddings/internal/app/appfx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func NewServeCommand() *cobra.Command {
	var (
		model   string
		port    int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the embedding HTTP server",
		Long:  "Load the configured sentence model and serve POST /embed-documents until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appfx.NewServeApp(
				named("model", model),
				named("port", port),
				named("workers", workers),
			)

			if err := app.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start application: %w", err)
			}

			select {
			case <-app.Done():
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
			defer cancel()

			if err := app.Stop(ctx); err != nil {
				return fmt.Errorf("failed to stop application: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model name or directory (overrides EMBEDDING_SENTENCE_TRANSFORMER_MODEL)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides EMBEDDING_PORT)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (overrides EMBEDDING_POOL_WORKERS)")

	return cmd
}
