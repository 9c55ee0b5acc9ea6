package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"transvox/internal/config"
	"transvox/internal/downloading"
	"transvox/internal/extracting"
	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/synthesizing"
	"transvox/internal/transcribing"
	"transvox/internal/translating"
	"transvox/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the queue store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) newLogger(cfg *config.Config) *slog.Logger {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil || logger == nil {
		return logging.NewNop()
	}
	return logger
}

// fullStageSet wires every pipeline stage with its default dependencies.
func fullStageSet(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
	return workflow.StageSet{
		Downloader:  downloading.NewDownloader(cfg, store, logger),
		Extractor:   extracting.NewExtractor(cfg, store, logger),
		Transcriber: transcribing.NewTranscriber(cfg, store, logger),
		Translator:  translating.NewTranslator(cfg, store, logger),
		Synthesizer: synthesizing.NewSynthesizer(cfg, store, logger),
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
