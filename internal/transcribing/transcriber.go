package transcribing

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
	"transvox/internal/services/pyannote"
	"transvox/internal/services/whisper"
	"transvox/internal/stage"
	"transvox/internal/transcript"
)

// SpeechToText is the slice of the whisper service the transcriber needs.
type SpeechToText interface {
	Transcribe(ctx context.Context, source, outputDir string) (whisper.Result, error)
	Model() string
	Device() whisper.Device
}

// Diarizer identifies speaker turns in an audio file.
type Diarizer interface {
	HasCredential() bool
	Healthy(ctx context.Context) bool
	Diarize(ctx context.Context, audioPath string) ([]transcript.Turn, error)
}

// Factory builds a speech-to-text backend for the requested model size and
// compute device. Item-level model overrides make the backend per-item.
type Factory func(model string, device whisper.Device) (SpeechToText, error)

// Transcriber runs whisper over extracted audio and optionally folds in
// speaker turns from the diarization sidecar.
type Transcriber struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	newSTT   Factory
	diarizer Diarizer
	probe    whisper.DeviceProbe
}

// NewTranscriber constructs the transcription handler using default dependencies.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	diarizer, err := pyannote.New(pyannote.Config{
		BaseURL: cfg.Diarization.SidecarURL,
		Token:   cfg.Diarization.HFToken,
		Model:   cfg.Diarization.Model,
	})
	if err != nil {
		logger.Warn("diarization client unavailable", logging.Error(err))
	}
	factory := func(model string, device whisper.Device) (SpeechToText, error) {
		return whisper.New(cfg.Tools.Whisper, whisper.Config{Model: model, Device: device})
	}
	probe := whisper.DeviceProbe(whisper.DetectDevice)
	if forced := whisper.Device(strings.TrimSpace(cfg.Whisper.Device)); forced != "" {
		probe = whisper.FixedDevice(forced)
	}
	var diarizerIface Diarizer
	if diarizer != nil {
		diarizerIface = diarizer
	}
	return NewTranscriberWithDependencies(cfg, store, logger, factory, diarizerIface, probe)
}

// NewTranscriberWithDependencies allows injecting all collaborators (used in tests).
func NewTranscriberWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, factory Factory, diarizer Diarizer, probe whisper.DeviceProbe) *Transcriber {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "transcriber"))
	}
	return &Transcriber{
		store:    store,
		cfg:      cfg,
		logger:   stageLogger,
		newSTT:   factory,
		diarizer: diarizer,
		probe:    probe,
	}
}

// Prepare fails fast when diarization was requested but the sidecar has no
// credential, before any expensive transcription runs.
func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	if item.Diarize {
		if t.diarizer == nil {
			return services.Wrap(
				services.ErrConfiguration,
				"transcribing",
				"diarization",
				"Diarization requested but the sidecar is not configured",
				nil,
			)
		}
		if !t.diarizer.HasCredential() {
			return services.Wrap(
				services.ErrMissingCredential,
				"transcribing",
				"diarization",
				"Diarization requires a Hugging Face token; set diarization.hf_token",
				nil,
			)
		}
	}

	item.ProgressMessage = "Starting transcription"
	logger.Info("starting transcription preparation",
		logging.String("audio_file", strings.TrimSpace(item.AudioFile)),
		logging.Bool("diarize", item.Diarize),
	)
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	source := strings.TrimSpace(item.AudioFile)
	if source == "" {
		return services.Wrap(
			services.ErrSourceNotFound,
			"transcribing",
			"resolve source",
			"Queue item has no audio file to transcribe",
			nil,
		)
	}
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(
			services.ErrSourceNotFound,
			"transcribing",
			"resolve source",
			fmt.Sprintf("Audio file %s missing on disk", source),
			err,
		)
	}

	model := strings.TrimSpace(item.ModelSize)
	if model == "" {
		model = t.cfg.Whisper.Model
	}
	device := t.resolveDevice()
	stt, err := t.newSTT(model, device)
	if err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"transcribing",
			"whisper",
			"Whisper is not available; check the whisper tool path",
			err,
		)
	}

	logger.Info("running whisper",
		logging.String("model", stt.Model()),
		logging.String("device", string(stt.Device())),
	)
	result, err := stt.Transcribe(ctx, source, t.cfg.Paths.ScratchDir)
	if err != nil {
		return services.Wrap(
			services.ErrTranscriptionFailed,
			"transcribing",
			"run whisper",
			"Whisper transcription failed",
			err,
		)
	}

	content := strings.TrimSpace(result.Text) + "\n"
	if item.Diarize {
		turns, err := t.diarizer.Diarize(ctx, source)
		if err != nil {
			return services.Wrap(
				services.ErrTranscriptionFailed,
				"transcribing",
				"diarize",
				"Speaker diarization failed",
				err,
			)
		}
		segments := transcript.MergeSpeakers(result.Words(), turns)
		content = transcript.FormatDiarized(segments)
		logger.Info("speakers merged", logging.Int("segments", len(segments)))
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	dest := filepath.Join(t.cfg.Paths.TranscriptsDir, base+"_transcripcion.txt")
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return services.Wrap(
			services.ErrTranscriptionFailed,
			"transcribing",
			"write transcript",
			fmt.Sprintf("Could not write transcript to %s", dest),
			err,
		)
	}

	item.TranscriptFile = dest
	item.DetectedLanguage = strings.ToLower(strings.TrimSpace(result.Language))
	item.SetProgress("Transcribed", "Transcript written", 100)
	logger.Info("transcription completed",
		logging.String("transcript_file", dest),
		logging.String("detected_language", item.DetectedLanguage),
	)
	return nil
}

// resolveDevice asks the injected probe for a compute device.
func (t *Transcriber) resolveDevice() whisper.Device {
	if t.probe != nil {
		if device := t.probe(); device != "" {
			return device
		}
	}
	return whisper.DetectDevice()
}

// HealthCheck verifies transcription dependencies.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcriber"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(t.cfg.Paths.TranscriptsDir) == "" {
		return stage.Unhealthy(name, "transcripts directory not configured")
	}
	binary := strings.TrimSpace(t.cfg.Tools.Whisper)
	if binary == "" {
		return stage.Unhealthy(name, "whisper binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("whisper binary %q not found", binary))
	}
	if t.diarizer != nil && t.diarizer.HasCredential() && !t.diarizer.Healthy(ctx) {
		return stage.Unhealthy(name, "diarization sidecar unreachable")
	}
	return stage.Healthy(name)
}
