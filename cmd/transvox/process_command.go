package main

import (
	"strings"

	"github.com/spf13/cobra"

	"transvox/internal/config"
	"transvox/internal/queue"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags enqueueFlags

	cmd := &cobra.Command{
		Use:   "process <url>",
		Short: "Run the full pipeline for a video URL",
		Long: "Downloads the video, extracts its audio, transcribes it, translates the " +
			"transcript, and optionally synthesizes speech from the result.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if url == "" {
				return errEmptyURL
			}
			return runPipeline(ctx, cmd, fullStageSet,
				func(cfg *config.Config, store *queue.Store) (*queue.Item, error) {
					return store.NewSource(cmd.Context(), url, flags.options())
				})
		},
	}

	cmd.Flags().StringVar(&flags.title, "title", "", "Override the item title")
	flags.registerModel(cmd)
	flags.registerTarget(cmd)
	flags.registerDiarize(cmd)
	flags.registerTrim(cmd)
	cmd.Flags().BoolVar(&flags.synthesize, "synthesize", false, "Synthesize speech from the translated transcript")

	return cmd
}
