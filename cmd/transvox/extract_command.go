package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"transvox/internal/config"
	"transvox/internal/extracting"
	"transvox/internal/queue"
	"transvox/internal/workflow"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var flags enqueueFlags

	cmd := &cobra.Command{
		Use:   "extract <video-file>",
		Short: "Extract the audio track from a local video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveLocalFile(args[0])
			if err != nil {
				return err
			}
			configure := func(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
				return workflow.StageSet{Extractor: extracting.NewExtractor(cfg, store, logger)}
			}
			return runPipeline(ctx, cmd, configure,
				func(cfg *config.Config, store *queue.Store) (*queue.Item, error) {
					return store.NewVideoFile(cmd.Context(), path, flags.options())
				})
		},
	}

	cmd.Flags().StringVar(&flags.title, "title", "", "Override the item title")

	return cmd
}
