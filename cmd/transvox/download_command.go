package main

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"transvox/internal/config"
	"transvox/internal/downloading"
	"transvox/internal/queue"
	"transvox/internal/workflow"
)

var errEmptyURL = errors.New("a video URL is required")

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var flags enqueueFlags

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a video without processing it further",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if url == "" {
				return errEmptyURL
			}
			configure := func(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
				return workflow.StageSet{Downloader: downloading.NewDownloader(cfg, store, logger)}
			}
			return runPipeline(ctx, cmd, configure,
				func(cfg *config.Config, store *queue.Store) (*queue.Item, error) {
					return store.NewSource(cmd.Context(), url, flags.options())
				})
		},
	}

	cmd.Flags().StringVar(&flags.title, "title", "", "Override the item title")
	flags.registerTrim(cmd)

	return cmd
}
