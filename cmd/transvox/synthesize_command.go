package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"transvox/internal/config"
	"transvox/internal/queue"
	"transvox/internal/services/tts"
	"transvox/internal/synthesizing"
	"transvox/internal/translating"
	"transvox/internal/workflow"
)

func newSynthesizeCommand(ctx *commandContext) *cobra.Command {
	var flags enqueueFlags
	var text string
	var lang string

	cmd := &cobra.Command{
		Use:   "synthesize [transcript-file]",
		Short: "Synthesize speech from a transcript file or ad hoc text",
		Long: "With a transcript file the item runs through translation and synthesis. " +
			"With --text the given text is synthesized directly into a timestamped file.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(text) != "" {
				if len(args) > 0 {
					return errors.New("specify either a transcript file or --text, not both")
				}
				return runManualSynthesis(ctx, cmd, text, lang)
			}
			if len(args) == 0 {
				return errors.New("a transcript file or --text is required")
			}
			path, err := resolveLocalFile(args[0])
			if err != nil {
				return err
			}
			flags.synthesize = true
			configure := func(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
				return workflow.StageSet{
					Translator:  translating.NewTranslator(cfg, store, logger),
					Synthesizer: synthesizing.NewSynthesizer(cfg, store, logger),
				}
			}
			return runPipeline(ctx, cmd, configure,
				func(cfg *config.Config, store *queue.Store) (*queue.Item, error) {
					return store.NewTranscriptFile(cmd.Context(), path, flags.options())
				})
		},
	}

	cmd.Flags().StringVar(&flags.title, "title", "", "Override the item title")
	flags.registerTarget(cmd)
	cmd.Flags().StringVar(&text, "text", "", "Synthesize this text instead of a transcript file")
	cmd.Flags().StringVar(&lang, "lang", "", "Language code for --text synthesis")

	return cmd
}

func runManualSynthesis(ctx *commandContext, cmd *cobra.Command, text, lang string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	client, err := tts.New(tts.Config{
		BaseURL:  cfg.TTS.BaseURL,
		Language: cfg.TTS.Language,
		Timeout:  time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("tts client: %w", err)
	}
	dest, err := synthesizing.SynthesizeText(cmd.Context(), cfg, client, text, lang)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synthesized speech written to %s\n", dest)
	return nil
}
