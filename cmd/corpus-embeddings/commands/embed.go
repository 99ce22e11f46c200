package commands

import (
	"bufio"
	"context"
	"io"

	"github.com/0x5457/corpus-embeddings/cmd/cmdsfx"
	"github.com/0x5457/corpus-embeddings/internal/app/appfx"
	"github.com/spf13/cobra"
)

func NewEmbedCommand() *cobra.Command {
	var (
		model           string
		workers         int
		multiprocessing bool
	)

	cmd := &cobra.Command{
		Use:   "embed [texts...]",
		Short: "Embed texts and print the JSON result",
		Long:  "Embed the given texts, or one text per stdin line when none are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				texts = lines
			}
			var flag *bool
			if cmd.Flags().Changed("multiprocessing") {
				flag = &multiprocessing
			}

			return runCommand(cmd.Context(), appfx.CommandModule,
				func(ctx context.Context, r *cmdsfx.CommandRunner) error {
					return r.RunEmbed(ctx, cmd.OutOrStdout(), texts, flag)
				},
				named("model", model),
				named("workers", workers),
			)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model name or directory")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size")
	cmd.Flags().BoolVar(&multiprocessing, "multiprocessing", false, "force (true) or forbid (false) the worker pool")

	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	lines := []string{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
