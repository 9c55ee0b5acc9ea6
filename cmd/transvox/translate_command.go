package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"transvox/internal/config"
	"transvox/internal/queue"
	"transvox/internal/synthesizing"
	"transvox/internal/transcribing"
	"transvox/internal/translating"
	"transvox/internal/workflow"
)

func newTranslateAudioCommand(ctx *commandContext) *cobra.Command {
	var flags enqueueFlags

	cmd := &cobra.Command{
		Use:   "translate-audio <audio-file>",
		Short: "Transcribe, translate, and synthesize a local audio file",
		Long: "Transcribes the audio without speaker labels, translates the transcript " +
			"into the target language (skipped when the detected language already " +
			"matches), and synthesizes speech from the result.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveLocalFile(args[0])
			if err != nil {
				return err
			}
			flags.synthesize = true
			configure := func(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
				return workflow.StageSet{
					Transcriber: transcribing.NewTranscriber(cfg, store, logger),
					Translator:  translating.NewTranslator(cfg, store, logger),
					Synthesizer: synthesizing.NewSynthesizer(cfg, store, logger),
				}
			}
			return runPipeline(ctx, cmd, configure,
				func(cfg *config.Config, store *queue.Store) (*queue.Item, error) {
					return store.NewAudioFile(cmd.Context(), path, flags.options())
				})
		},
	}

	cmd.Flags().StringVar(&flags.title, "title", "", "Override the item title")
	flags.registerModel(cmd)
	flags.registerTarget(cmd)

	return cmd
}
