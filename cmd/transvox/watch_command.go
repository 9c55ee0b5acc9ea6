package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"transvox/internal/config"
	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/watch"
	"transvox/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var flags enqueueFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the drop folder and process new media continuously",
		Long: "Monitors the configured watch directory for video, audio, and transcript " +
			"files, enqueues them at the matching pipeline stage, and processes the " +
			"queue in the background until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(ctx, cmd, flags)
		},
	}

	flags.registerModel(cmd)
	flags.registerTarget(cmd)
	flags.registerDiarize(cmd)
	cmd.Flags().BoolVar(&flags.synthesize, "synthesize", false, "Synthesize speech for watched items")

	return cmd
}

func runWatch(ctx *commandContext, cmd *cobra.Command, flags enqueueFlags) error {
	return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
		lockPath := filepath.Join(cfg.Paths.LogDir, "transvox-watch.lock")
		lock := flock.New(lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire watch lock: %w", err)
		}
		if !locked {
			return errors.New("another transvox watch instance is already running")
		}
		defer lock.Unlock()

		signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		logger := ctx.newLogger(cfg)

		if reset, err := store.ResetStuckProcessing(signalCtx); err != nil {
			logger.Warn("reset stale processing items", logging.Error(err))
		} else if reset > 0 {
			logger.Info("reset stale processing items", logging.Int64("count", reset))
		}

		mgr := workflow.NewManager(cfg, store, logger)
		mgr.ConfigureStages(fullStageSet(cfg, store, logger))
		if err := mgr.Start(signalCtx); err != nil {
			return fmt.Errorf("start workflow: %w", err)
		}
		defer mgr.Stop()

		watcher, err := watch.New(cfg, store, logger, flags.options())
		if err != nil {
			return err
		}
		defer watcher.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Watching %s (ctrl-c to stop)\n", cfg.Paths.WatchDir)

		if err := watcher.Run(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Fprintln(out, "Watch stopped")
		return nil
	})
}
