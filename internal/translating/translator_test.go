package translating_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transvox/internal/config"
	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/services"
	"transvox/internal/testsupport"
	"transvox/internal/translating"
)

type fakeTranslation struct {
	translated   string
	translateErr error
	detected     string
	detectErr    error

	translateCalls int
	lastSource     string
	lastTarget     string
	lastText       string
}

func (f *fakeTranslation) Translate(_ context.Context, text, source, target string) (string, error) {
	f.translateCalls++
	f.lastText = text
	f.lastSource = source
	f.lastTarget = target
	return f.translated, f.translateErr
}

func (f *fakeTranslation) Detect(context.Context, string) (string, error) {
	return f.detected, f.detectErr
}

func newTranslator(t *testing.T, svc *fakeTranslation) (*translating.Translator, *queue.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithTargetLanguage("es"))
	store := testsupport.MustOpenStore(t, cfg)
	handler := translating.NewTranslatorWithClient(cfg, store, logging.NewNop(), svc)
	return handler, store, cfg
}

func enqueueTranscript(t *testing.T, store *queue.Store, content string, opts queue.Options) *queue.Item {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk_transcripcion.txt")
	testsupport.WriteFile(t, path, content)
	item, err := store.NewTranscriptFile(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("NewTranscriptFile failed: %v", err)
	}
	return item
}

func TestExecuteTranslatesTranscript(t *testing.T) {
	svc := &fakeTranslation{translated: "Hola a todos."}
	handler, store, cfg := newTranslator(t, svc)
	ctx := context.Background()

	item := enqueueTranscript(t, store, "Hello everyone.\n", queue.Options{})
	item.DetectedLanguage = "en"
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if svc.translateCalls != 1 {
		t.Fatalf("expected one translate call, got %d", svc.translateCalls)
	}
	if svc.lastSource != "en" || svc.lastTarget != "es" {
		t.Fatalf("unexpected language pair %s -> %s", svc.lastSource, svc.lastTarget)
	}

	wantDest := filepath.Join(cfg.Paths.TranscriptsDir, "talk_transcripcion_traducido_es.txt")
	if item.TranslatedFile != wantDest {
		t.Fatalf("translated file %q, want %q", item.TranslatedFile, wantDest)
	}
	data, err := os.ReadFile(wantDest)
	if err != nil {
		t.Fatalf("read translation: %v", err)
	}
	if string(data) != "Hola a todos.\n" {
		t.Fatalf("unexpected translation: %q", data)
	}
}

func TestExecuteSkipsWhenAlreadyTargetLanguage(t *testing.T) {
	svc := &fakeTranslation{}
	handler, store, _ := newTranslator(t, svc)
	ctx := context.Background()

	item := enqueueTranscript(t, store, "Hola a todos.\n", queue.Options{})
	item.DetectedLanguage = "spanish"
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if svc.translateCalls != 0 {
		t.Fatal("translation service should not be called")
	}
	if item.TranslatedFile != item.TranscriptFile {
		t.Fatalf("expected transcript reused as translation, got %q", item.TranslatedFile)
	}
}

func TestExecuteDetectsLanguageWhenUnknown(t *testing.T) {
	svc := &fakeTranslation{detected: "es"}
	handler, store, _ := newTranslator(t, svc)
	ctx := context.Background()

	item := enqueueTranscript(t, store, "Hola a todos.\n", queue.Options{})
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.DetectedLanguage != "es" {
		t.Fatalf("expected detected language recorded, got %q", item.DetectedLanguage)
	}
	if svc.translateCalls != 0 {
		t.Fatal("matching detected language must skip translation")
	}
}

func TestExecuteStripsSpeakerHeaders(t *testing.T) {
	svc := &fakeTranslation{translated: "Hola. Adios."}
	handler, store, _ := newTranslator(t, svc)
	ctx := context.Background()

	content := "[SPEAKER_00] (0.00s - 1.00s)\nHello.\n\n[SPEAKER_01] (2.00s - 3.00s)\nGoodbye.\n"
	item := enqueueTranscript(t, store, content, queue.Options{})
	item.DetectedLanguage = "en"
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if strings.Contains(svc.lastText, "SPEAKER") || strings.Contains(svc.lastText, "(") {
		t.Fatalf("speaker metadata leaked into translation input: %q", svc.lastText)
	}
	if svc.lastText != "Hello. Goodbye." {
		t.Fatalf("unexpected translation input: %q", svc.lastText)
	}
}

func TestExecuteWrapsServiceFailure(t *testing.T) {
	svc := &fakeTranslation{translateErr: errors.New("upstream 500")}
	handler, store, _ := newTranslator(t, svc)
	ctx := context.Background()

	item := enqueueTranscript(t, store, "Hello.\n", queue.Options{})
	item.DetectedLanguage = "en"
	if err := handler.Execute(ctx, item); !errors.Is(err, services.ErrTranslationFailed) {
		t.Fatalf("expected translation failure, got %v", err)
	}
}

func TestExecuteMissingTranscript(t *testing.T) {
	svc := &fakeTranslation{}
	handler, store, _ := newTranslator(t, svc)
	ctx := context.Background()

	item, err := store.NewTranscriptFile(ctx, "/nonexistent/talk.txt", queue.Options{})
	if err != nil {
		t.Fatalf("NewTranscriptFile failed: %v", err)
	}
	if err := handler.Execute(ctx, item); !errors.Is(err, services.ErrSourceNotFound) {
		t.Fatalf("expected source not found, got %v", err)
	}
}

func TestExecuteItemTargetOverridesConfig(t *testing.T) {
	svc := &fakeTranslation{translated: "Bonjour."}
	handler, store, _ := newTranslator(t, svc)
	ctx := context.Background()

	item := enqueueTranscript(t, store, "Hello.\n", queue.Options{TargetLanguage: "french"})
	item.DetectedLanguage = "en"
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if svc.lastTarget != "fr" {
		t.Fatalf("expected normalized item target, got %q", svc.lastTarget)
	}
	if item.TargetLanguage != "fr" {
		t.Fatalf("expected item target recorded, got %q", item.TargetLanguage)
	}
}
