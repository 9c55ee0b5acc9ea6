package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"transvox/internal/config"
	"transvox/internal/queue"
	"transvox/internal/workflow"
)

// enqueueFlags carries the per-item options shared by the pipeline commands.
type enqueueFlags struct {
	title      string
	model      string
	targetLang string
	diarize    bool
	synthesize bool
	trimStart  string
	trimEnd    string
}

func (f *enqueueFlags) registerModel(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Whisper model size (tiny, base, small, medium, large)")
}

func (f *enqueueFlags) registerDiarize(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.diarize, "diarize", false, "Label speakers in the transcript")
}

func (f *enqueueFlags) registerTarget(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.targetLang, "target-lang", "t", "", "Target translation language code")
}

func (f *enqueueFlags) registerTrim(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.trimStart, "trim-start", "", "Download only from this timestamp (HH:MM:SS)")
	cmd.Flags().StringVar(&f.trimEnd, "trim-end", "", "Download only up to this timestamp (HH:MM:SS)")
}

func (f enqueueFlags) options() queue.Options {
	return queue.Options{
		Title:          f.title,
		ModelSize:      f.model,
		TargetLanguage: f.targetLang,
		Diarize:        f.diarize,
		Synthesize:     f.synthesize,
		TrimStart:      f.trimStart,
		TrimEnd:        f.trimEnd,
	}
}

// runPipeline enqueues one item and drives it through the configured stages,
// reporting the final state and produced artifacts.
func runPipeline(
	ctx *commandContext,
	cmd *cobra.Command,
	configure func(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet,
	enqueue func(cfg *config.Config, store *queue.Store) (*queue.Item, error),
) error {
	return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
		item, err := enqueue(cfg, store)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Queued %s as item #%d\n", item.Label(), item.ID)

		logger := ctx.newLogger(cfg)
		mgr := workflow.NewManager(cfg, store, logger)
		mgr.ConfigureStages(configure(cfg, store, logger))

		final, err := mgr.RunItem(cmd.Context(), item.ID)
		if err != nil {
			return err
		}
		return reportItem(out, final)
	})
}

func reportItem(out io.Writer, item *queue.Item) error {
	if item == nil {
		return errors.New("queue item disappeared during processing")
	}
	if item.Status == queue.StatusFailed {
		msg := item.ErrorMessage
		if msg == "" {
			msg = "processing failed"
		}
		return fmt.Errorf("item #%d failed: %s", item.ID, msg)
	}
	fmt.Fprintf(out, "Item #%d finished with status %s\n", item.ID, item.Status)
	artifacts := []struct {
		label string
		path  string
	}{
		{"Video", item.VideoFile},
		{"Audio", item.AudioFile},
		{"Transcript", item.TranscriptFile},
		{"Translation", item.TranslatedFile},
		{"Synthesized", item.SynthesizedFile},
	}
	for _, artifact := range artifacts {
		if artifact.path != "" {
			fmt.Fprintf(out, "  %s: %s\n", artifact.label, artifact.path)
		}
	}
	return nil
}

// resolveLocalFile validates that the argument names an existing regular file.
func resolveLocalFile(arg string) (string, error) {
	absPath, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file does not exist: %s", absPath)
		}
		return "", fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", absPath)
	}
	return absPath, nil
}
