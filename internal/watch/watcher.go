package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"transvox/internal/config"
	"transvox/internal/logging"
	"transvox/internal/queue"
)

var (
	videoExtensions = map[string]struct{}{
		".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {}, ".m4v": {},
	}
	audioExtensions = map[string]struct{}{
		".mp3": {}, ".wav": {}, ".m4a": {}, ".flac": {}, ".ogg": {},
	}
	transcriptExtensions = map[string]struct{}{
		".txt": {},
	}
)

// settleDelay gives the writer time to finish before the file is enqueued.
const settleDelay = 500 * time.Millisecond

// Watcher monitors the drop folder and enqueues new media files at the
// pipeline stage matching their kind.
type Watcher struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	opts    queue.Options
}

// New creates a drop-folder watcher over the configured watch directory.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts queue.Options) (*Watcher, error) {
	dir := strings.TrimSpace(cfg.Paths.WatchDir)
	if dir == "" {
		return nil, fmt.Errorf("watch directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure watch dir: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	watchLogger := logger
	if watchLogger == nil {
		watchLogger = logging.NewNop()
	}
	watchLogger = watchLogger.With(logging.String(logging.FieldComponent, "watcher"))

	return &Watcher{
		cfg:     cfg,
		store:   store,
		logger:  watchLogger,
		watcher: fsWatcher,
		opts:    opts,
	}, nil
}

// Run consumes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching drop folder", logging.String("dir", w.cfg.Paths.WatchDir))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			// Let the copy finish before touching the file.
			time.Sleep(settleDelay)
			if err := w.enqueue(ctx, event.Name); err != nil {
				w.logger.Error("failed to enqueue dropped file",
					logging.String("path", event.Name),
					logging.Error(err),
				)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher error", logging.Error(err))
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) enqueue(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}

	item, err := EnqueueFile(ctx, w.store, path, w.opts)
	if err != nil {
		return err
	}
	if item == nil {
		w.logger.Debug("ignoring unsupported file", logging.String("path", path))
		return nil
	}
	w.logger.Info("file enqueued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("path", path),
		logging.String("status", string(item.Status)),
	)
	return nil
}

// EnqueueFile inserts a local file into the queue at the stage its extension
// implies: videos skip downloading, audio skips extraction, transcripts skip
// transcription. The returned item is nil for unsupported extensions.
func EnqueueFile(ctx context.Context, store *queue.Store, path string, opts queue.Options) (*queue.Item, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case hasExt(videoExtensions, ext):
		return store.NewVideoFile(ctx, path, opts)
	case hasExt(audioExtensions, ext):
		return store.NewAudioFile(ctx, path, opts)
	case hasExt(transcriptExtensions, ext):
		return store.NewTranscriptFile(ctx, path, opts)
	default:
		return nil, nil
	}
}

func hasExt(set map[string]struct{}, ext string) bool {
	_, ok := set[ext]
	return ok
}
