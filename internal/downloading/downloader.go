package downloading

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"transvox/internal/artifact"
	"transvox/internal/config"
	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/services"
	"transvox/internal/services/ytdlp"
	"transvox/internal/stage"
	"transvox/internal/timecode"
)

// Downloader fetches remote sources into the video library via yt-dlp.
type Downloader struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client *ytdlp.Client
}

// NewDownloader constructs the downloading handler using default dependencies.
func NewDownloader(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Downloader {
	client, err := ytdlp.New(cfg.Tools.YtDlp)
	if err != nil {
		logger.Warn("yt-dlp client unavailable", logging.Error(err))
	}
	return NewDownloaderWithClient(cfg, store, logger, client)
}

// NewDownloaderWithClient allows injecting the yt-dlp client (used in tests).
func NewDownloaderWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *ytdlp.Client) *Downloader {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "downloader"))
	}
	return &Downloader{store: store, cfg: cfg, logger: stageLogger, client: client}
}

// Prepare validates the trim window before any subprocess is launched.
func (d *Downloader) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)

	hasStart := strings.TrimSpace(item.TrimStart) != ""
	hasEnd := strings.TrimSpace(item.TrimEnd) != ""
	if hasStart != hasEnd {
		return services.Wrap(
			services.ErrInvalidTimeRange,
			"downloading",
			"validate trim",
			"Trim requires both a start and an end time",
			nil,
		)
	}
	if hasStart {
		if _, err := timecode.ParseClockRange(item.TrimStart, item.TrimEnd); err != nil {
			return services.Wrap(
				services.ErrInvalidTimeRange,
				"downloading",
				"validate trim",
				fmt.Sprintf("Invalid trim window %s-%s", item.TrimStart, item.TrimEnd),
				err,
			)
		}
	}

	item.ProgressMessage = "Starting download"
	logger.Info("starting download preparation", logging.String("source", strings.TrimSpace(item.Source)))
	return nil
}

func (d *Downloader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)
	if d.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"downloading",
			"client",
			"yt-dlp client unavailable; check the ytdlp tool path",
			nil,
		)
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		probed, err := d.client.Title(ctx, item.Source)
		if err != nil {
			logger.Warn("title probe failed, using fallback name", logging.Error(err))
			probed = "video"
		}
		title = probed
	}
	name := ytdlp.SanitizeTitle(title)
	if name == "" {
		name = "video"
	}

	trimmed := strings.TrimSpace(item.TrimStart) != ""
	if trimmed {
		name += fmt.Sprintf("_%s-%s", compactClock(item.TrimStart), compactClock(item.TrimEnd))
	}
	dest := filepath.Join(d.cfg.Paths.VideosDir, name+".mp4")

	req := ytdlp.Request{
		URL:        item.Source,
		OutputPath: dest,
	}
	if trimmed {
		req.Section = fmt.Sprintf("*%s-%s", item.TrimStart, item.TrimEnd)
		req.ForceKeyframes = true
	}

	snap := artifact.TakeSnapshot(d.cfg.Paths.VideosDir)
	logger.Info("launching yt-dlp",
		logging.String("destination", dest),
		logging.Bool("trimmed", trimmed),
	)
	output, runErr := d.client.Download(ctx, req)

	// yt-dlp exit codes are unreliable when postprocessing warns, so the
	// artifact on disk is the source of truth.
	located, locateErr := artifact.Locate(snap, output)
	if locateErr != nil {
		if runErr != nil {
			if ytdlp.MentionsFFmpeg(output) {
				return services.Wrap(
					services.ErrExternalTool,
					"downloading",
					"ffmpeg postprocess",
					"ffmpeg failed while cutting the requested section",
					runErr,
				)
			}
			return services.Wrap(
				services.ErrExternalTool,
				"downloading",
				"yt-dlp download",
				"Download failed; check the URL and network access",
				runErr,
			)
		}
		return locateErr
	}
	if runErr != nil {
		logger.Warn("yt-dlp exited non-zero but artifact exists", logging.Error(runErr))
	}

	item.Title = title
	item.VideoFile = located
	item.SetProgress("Downloaded", "Video downloaded", 100)
	logger.Info("download completed", logging.String("video_file", located))
	return nil
}

// HealthCheck verifies download dependencies.
func (d *Downloader) HealthCheck(ctx context.Context) stage.Health {
	const name = "downloader"
	if d.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Paths.VideosDir) == "" {
		return stage.Unhealthy(name, "videos directory not configured")
	}
	if d.client == nil {
		return stage.Unhealthy(name, "yt-dlp client unavailable")
	}
	binary := strings.TrimSpace(d.cfg.Tools.YtDlp)
	if binary == "" {
		return stage.Unhealthy(name, "yt-dlp binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("yt-dlp binary %q not found", binary))
	}
	return stage.Healthy(name)
}

func compactClock(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), ":", "")
}
