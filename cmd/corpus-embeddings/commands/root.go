package commands

import (
	"context"
	"fmt"

	"github.com/0x5457/corpus-embeddings/cmd/cmdsfx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// NewRootCommand builds the CLI. Without a subcommand it runs the embedding server.
func NewRootCommand() *cobra.Command {
	serve := NewServeCommand()
	root := &cobra.Command{
		Use:           "corpus-embeddings",
		Short:         "Sentence embedding service for document corpora",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(
		serve,
		NewEmbedCommand(),
		NewScoreCommand(),
		NewSaveModelCommand(),
		NewIndexCommand(),
		NewSearchCommand(),
		NewMCPServeCommand(),
		NewMCPClientCommand(),
	)
	return root
}

// named supplies v under the given fx name tag.
func named(name string, v any) fx.Option {
	return fx.Supply(fx.Annotate(v, fx.ResultTags(fmt.Sprintf(`name:%q`, name))))
}

// runCommand starts an fx app built from module, hands its CommandRunner to fn
// and stops the app once fn returns.
func runCommand(
	ctx context.Context,
	module fx.Option,
	fn func(ctx context.Context, runner *cmdsfx.CommandRunner) error,
	opts ...fx.Option,
) (err error) {
	var runner *cmdsfx.CommandRunner
	app := fx.New(module, fx.Options(opts...), fx.Populate(&runner))

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("failed to stop application: %w", stopErr)
		}
	}()

	return fn(ctx, runner)
}
