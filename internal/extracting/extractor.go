package extracting

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"transvox/internal/config"
	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/services"
	"transvox/internal/services/ffmpeg"
	"transvox/internal/stage"
)

// Extractor pulls the audio track out of a downloaded video via ffmpeg.
type Extractor struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client *ffmpeg.Client
}

// NewExtractor constructs the extraction handler using default dependencies.
func NewExtractor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Extractor {
	client, err := ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
	if err != nil {
		logger.Warn("ffmpeg client unavailable", logging.Error(err))
	}
	return NewExtractorWithClient(cfg, store, logger, client)
}

// NewExtractorWithClient allows injecting the ffmpeg client (used in tests).
func NewExtractorWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *ffmpeg.Client) *Extractor {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "extractor"))
	}
	return &Extractor{store: store, cfg: cfg, logger: stageLogger, client: client}
}

func (e *Extractor) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	item.ProgressMessage = "Starting audio extraction"
	logger.Info("starting extraction preparation", logging.String("video_file", strings.TrimSpace(item.VideoFile)))
	return nil
}

func (e *Extractor) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	if e.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"extracting",
			"client",
			"ffmpeg client unavailable; check the ffmpeg tool path",
			nil,
		)
	}

	source := strings.TrimSpace(item.VideoFile)
	if source == "" {
		return services.Wrap(
			services.ErrSourceNotFound,
			"extracting",
			"resolve source",
			"Queue item has no video file to extract from",
			nil,
		)
	}
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(
			services.ErrSourceNotFound,
			"extracting",
			"resolve source",
			fmt.Sprintf("Video file %s missing on disk", source),
			err,
		)
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	dest := filepath.Join(e.cfg.Paths.AudiosDir, base+".mp3")

	logger.Info("extracting audio", logging.String("destination", dest))
	if err := e.client.ExtractAudio(ctx, source, dest); err != nil {
		return services.Wrap(
			services.ErrExtractionFailed,
			"extracting",
			"ffmpeg extract",
			"ffmpeg could not extract the audio track",
			err,
		)
	}

	if duration, err := e.client.Duration(ctx, dest); err == nil {
		logger.Info("audio extracted",
			logging.String("audio_file", dest),
			logging.Float64("duration_seconds", duration),
		)
	} else {
		logger.Debug("ffprobe duration unavailable", logging.Error(err))
	}

	item.AudioFile = dest
	item.SetProgress("Extracted", "Audio extracted", 100)
	return nil
}

// HealthCheck verifies extraction dependencies.
func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	const name = "extractor"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(e.cfg.Paths.AudiosDir) == "" {
		return stage.Unhealthy(name, "audios directory not configured")
	}
	if e.client == nil {
		return stage.Unhealthy(name, "ffmpeg client unavailable")
	}
	binary := strings.TrimSpace(e.cfg.Tools.FFmpeg)
	if binary == "" {
		return stage.Unhealthy(name, "ffmpeg binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg binary %q not found", binary))
	}
	return stage.Healthy(name)
}
