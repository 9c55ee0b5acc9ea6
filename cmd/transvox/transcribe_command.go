package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"transvox/internal/config"
	"transvox/internal/queue"
	"transvox/internal/transcribing"
	"transvox/internal/workflow"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var flags enqueueFlags

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a local audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveLocalFile(args[0])
			if err != nil {
				return err
			}
			configure := func(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
				return workflow.StageSet{Transcriber: transcribing.NewTranscriber(cfg, store, logger)}
			}
			return runPipeline(ctx, cmd, configure,
				func(cfg *config.Config, store *queue.Store) (*queue.Item, error) {
					return store.NewAudioFile(cmd.Context(), path, flags.options())
				})
		},
	}

	cmd.Flags().StringVar(&flags.title, "title", "", "Override the item title")
	flags.registerModel(cmd)
	flags.registerDiarize(cmd)

	return cmd
}
