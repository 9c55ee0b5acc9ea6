package synthesizing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transvox/internal/config"
	"transvox/internal/language"
	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/services"
	"transvox/internal/services/tts"
	"transvox/internal/stage"
	"transvox/internal/transcript"
)

// SpeechService is the slice of the TTS client the stage needs.
type SpeechService interface {
	Synthesize(ctx context.Context, text, lang, dest string) error
	DefaultLanguage() string
}

// Synthesizer voices transcripts through the text-to-speech service.
type Synthesizer struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client SpeechService
}

// NewSynthesizer constructs the synthesis handler using default dependencies.
func NewSynthesizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Synthesizer {
	client, err := tts.New(tts.Config{
		BaseURL:  cfg.TTS.BaseURL,
		Language: cfg.TTS.Language,
		Timeout:  time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Warn("tts client unavailable", logging.Error(err))
	}
	var svc SpeechService
	if client != nil {
		svc = client
	}
	return NewSynthesizerWithClient(cfg, store, logger, svc)
}

// NewSynthesizerWithClient allows injecting the speech service (used in tests).
func NewSynthesizerWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client SpeechService) *Synthesizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "synthesizer"))
	}
	return &Synthesizer{store: store, cfg: cfg, logger: stageLogger, client: client}
}

func (s *Synthesizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	if item.Synthesize {
		item.ProgressMessage = "Starting speech synthesis"
	}
	logger.Info("starting synthesis preparation", logging.Bool("synthesize", item.Synthesize))
	return nil
}

func (s *Synthesizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)

	if !item.Synthesize {
		item.Status = queue.StatusCompleted
		item.SetProgress("Completed", "Synthesis not requested", 100)
		logger.Info("synthesis skipped")
		return nil
	}
	if s.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"synthesizing",
			"client",
			"TTS service unavailable; set tts.base_url",
			nil,
		)
	}

	// Prefer the translated text when the item was translated.
	source := strings.TrimSpace(item.TranslatedFile)
	translated := source != "" && source != strings.TrimSpace(item.TranscriptFile)
	if source == "" {
		source = strings.TrimSpace(item.TranscriptFile)
	}
	if source == "" {
		return services.Wrap(
			services.ErrSourceNotFound,
			"synthesizing",
			"resolve source",
			"Queue item has no text to synthesize",
			nil,
		)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return services.Wrap(
			services.ErrSourceNotFound,
			"synthesizing",
			"read text",
			fmt.Sprintf("Text file %s missing on disk", source),
			err,
		)
	}

	spoken := transcript.ExtractSpokenText(string(data))
	if strings.TrimSpace(spoken) == "" {
		return services.Wrap(
			services.ErrNoSynthesizableText,
			"synthesizing",
			"extract text",
			"Transcript contains no speakable text",
			nil,
		)
	}

	lang := language.ToISO2(item.TargetLanguage)
	if !translated {
		if detected := language.ToISO2(item.DetectedLanguage); detected != "" {
			lang = detected
		}
	}
	if lang == "" {
		lang = s.client.DefaultLanguage()
	}

	// Translated transcripts already carry the _traducido_<lang> suffix in
	// their base name, so the audio keeps that name with an mp3 extension.
	// Text already in the target language gets _sintetizado_<lang> instead.
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if !translated {
		base += "_sintetizado_" + lang
	}
	dest := filepath.Join(s.cfg.Paths.SynthesizedDir, base+".mp3")

	logger.Info("synthesizing speech",
		logging.String("language", lang),
		logging.String("destination", dest),
	)
	if err := s.client.Synthesize(ctx, spoken, lang, dest); err != nil {
		return services.Wrap(
			services.ErrSynthesisFailed,
			"synthesizing",
			"tts",
			"Speech synthesis failed",
			err,
		)
	}

	item.SynthesizedFile = dest
	item.SetProgress("Completed", "Speech synthesized", 100)
	logger.Info("synthesis completed", logging.String("synthesized_file", dest))
	return nil
}

// HealthCheck verifies synthesis dependencies.
func (s *Synthesizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "synthesizer"
	if s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(s.cfg.Paths.SynthesizedDir) == "" {
		return stage.Unhealthy(name, "synthesized directory not configured")
	}
	if s.client == nil {
		return stage.Unhealthy(name, "tts service unavailable")
	}
	return stage.Healthy(name)
}

// SynthesizeText voices arbitrary text outside the queue, for the manual CLI
// entry point. The output lands in the synthesized directory with a
// timestamped name and the path is returned.
func SynthesizeText(ctx context.Context, cfg *config.Config, client SpeechService, text, lang string) (string, error) {
	if client == nil {
		return "", services.Wrap(
			services.ErrConfiguration,
			"synthesizing",
			"client",
			"TTS service unavailable; set tts.base_url",
			nil,
		)
	}
	if strings.TrimSpace(text) == "" {
		return "", services.Wrap(
			services.ErrNoSynthesizableText,
			"synthesizing",
			"manual text",
			"No text provided",
			nil,
		)
	}
	normalized := language.ToISO2(lang)
	if normalized == "" {
		normalized = client.DefaultLanguage()
	}
	if err := os.MkdirAll(cfg.Paths.SynthesizedDir, 0o755); err != nil {
		return "", services.Wrap(
			services.ErrConfiguration,
			"synthesizing",
			"ensure directory",
			"Could not create the synthesized directory",
			err,
		)
	}
	dest := filepath.Join(cfg.Paths.SynthesizedDir,
		fmt.Sprintf("sintetizado_%s.mp3", time.Now().Format("20060102_150405")))
	if err := client.Synthesize(ctx, text, normalized, dest); err != nil {
		return "", services.Wrap(
			services.ErrSynthesisFailed,
			"synthesizing",
			"tts",
			"Speech synthesis failed",
			err,
		)
	}
	return dest, nil
}
