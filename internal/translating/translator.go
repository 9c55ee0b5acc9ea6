package translating

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"transvox/internal/config"
	"transvox/internal/language"
	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/services"
	"transvox/internal/services/translate"
	"transvox/internal/stage"
	"transvox/internal/transcript"
)

// TranslationService is the slice of the translate client the stage needs.
type TranslationService interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Detect(ctx context.Context, text string) (string, error)
}

// Translator converts transcripts into the target language, skipping the
// external call entirely when the text is already in that language.
type Translator struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client TranslationService
}

// NewTranslator constructs the translation handler using default dependencies.
func NewTranslator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Translator {
	client, err := translate.New(translate.Config{
		BaseURL: cfg.Translation.BaseURL,
		APIKey:  cfg.Translation.APIKey,
	})
	if err != nil {
		logger.Warn("translation client unavailable", logging.Error(err))
	}
	var svc TranslationService
	if client != nil {
		svc = client
	}
	return NewTranslatorWithClient(cfg, store, logger, svc)
}

// NewTranslatorWithClient allows injecting the translation service (used in tests).
func NewTranslatorWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client TranslationService) *Translator {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "translator"))
	}
	return &Translator{store: store, cfg: cfg, logger: stageLogger, client: client}
}

func (t *Translator) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	item.ProgressMessage = "Starting translation"
	logger.Info("starting translation preparation",
		logging.String("transcript_file", strings.TrimSpace(item.TranscriptFile)),
		logging.String("detected_language", item.DetectedLanguage),
	)
	return nil
}

func (t *Translator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	source := strings.TrimSpace(item.TranscriptFile)
	if source == "" {
		return services.Wrap(
			services.ErrSourceNotFound,
			"translating",
			"resolve source",
			"Queue item has no transcript to translate",
			nil,
		)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return services.Wrap(
			services.ErrSourceNotFound,
			"translating",
			"read transcript",
			fmt.Sprintf("Transcript %s missing on disk", source),
			err,
		)
	}
	content := string(data)

	target := language.ToISO2(item.TargetLanguage)
	if target == "" {
		target = language.ToISO2(t.cfg.Translation.TargetLanguage)
	}
	if target == "" {
		return services.Wrap(
			services.ErrConfiguration,
			"translating",
			"resolve target",
			"No target language configured; set translation.target_language",
			nil,
		)
	}

	spoken := transcript.ExtractSpokenText(content)
	detected := language.ToISO2(item.DetectedLanguage)
	if detected == "" && t.client != nil && strings.TrimSpace(spoken) != "" {
		if guessed, err := t.client.Detect(ctx, spoken); err == nil {
			detected = language.ToISO2(guessed)
			item.DetectedLanguage = detected
		} else {
			logger.Debug("language detection failed", logging.Error(err))
		}
	}

	if detected != "" && language.Same(detected, target) {
		// Already in the target language; the transcript doubles as its
		// own translation and the service is never called.
		item.TranslatedFile = item.TranscriptFile
		item.SetProgress("Translated", fmt.Sprintf("Already in %s, translation skipped", language.DisplayName(target)), 100)
		logger.Info("translation skipped", logging.String("language", target))
		return nil
	}

	if t.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"translating",
			"client",
			"Translation service unavailable; set translation.base_url",
			nil,
		)
	}
	if strings.TrimSpace(spoken) == "" {
		return services.Wrap(
			services.ErrTranslationFailed,
			"translating",
			"extract text",
			"Transcript has no translatable text",
			nil,
		)
	}

	from := translate.AutoSource
	if detected != "" {
		from = detected
	}
	logger.Info("translating transcript",
		logging.String("from", from),
		logging.String("to", target),
	)
	translated, err := t.client.Translate(ctx, spoken, from, target)
	if err != nil {
		return services.Wrap(
			services.ErrTranslationFailed,
			"translating",
			"translate",
			"Translation service call failed",
			err,
		)
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	dest := filepath.Join(t.cfg.Paths.TranscriptsDir, fmt.Sprintf("%s_traducido_%s.txt", base, target))
	if err := os.WriteFile(dest, []byte(strings.TrimSpace(translated)+"\n"), 0o644); err != nil {
		return services.Wrap(
			services.ErrTranslationFailed,
			"translating",
			"write translation",
			fmt.Sprintf("Could not write translation to %s", dest),
			err,
		)
	}

	item.TranslatedFile = dest
	item.TargetLanguage = target
	item.SetProgress("Translated", "Translation written", 100)
	logger.Info("translation completed", logging.String("translated_file", dest))
	return nil
}

// HealthCheck verifies translation dependencies.
func (t *Translator) HealthCheck(ctx context.Context) stage.Health {
	const name = "translator"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(t.cfg.Paths.TranscriptsDir) == "" {
		return stage.Unhealthy(name, "transcripts directory not configured")
	}
	if t.client == nil {
		return stage.Unhealthy(name, "translation service unavailable")
	}
	return stage.Healthy(name)
}
