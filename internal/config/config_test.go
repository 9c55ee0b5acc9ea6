package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transvox/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing file")
	}
	if cfg.Whisper.Model != config.DefaultWhisperModel {
		t.Fatalf("expected default model, got %q", cfg.Whisper.Model)
	}
	if cfg.Paths.VideosDir == "" || !filepath.IsAbs(cfg.Paths.VideosDir) {
		t.Fatalf("expected absolute derived videos dir, got %q", cfg.Paths.VideosDir)
	}
}

func TestLoadParsesFileAndDerivesDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
library_dir = "` + dir + `/media"

[whisper]
model = "small"

[translation]
target_language = "EN"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be used, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Whisper.Model != "small" {
		t.Fatalf("model = %q", cfg.Whisper.Model)
	}
	if got, want := cfg.Paths.TranscriptsDir, filepath.Join(dir, "media", "transcripts"); got != want {
		t.Fatalf("transcripts dir = %q, want %q", got, want)
	}
	if cfg.Translation.TargetLanguage != "en" {
		t.Fatalf("expected lowered target language, got %q", cfg.Translation.TargetLanguage)
	}
}

func TestLoadRejectsUnknownModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[whisper]\nmodel = \"enormous\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "whisper.model") {
		t.Fatalf("expected model validation error, got %v", err)
	}
}

func TestEnsureDirectoriesCreatesArtifactDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = dir
	cfg.Paths.VideosDir = filepath.Join(dir, "videos")
	cfg.Paths.AudiosDir = filepath.Join(dir, "audios")
	cfg.Paths.TranscriptsDir = filepath.Join(dir, "transcripts")
	cfg.Paths.SynthesizedDir = filepath.Join(dir, "synthesized")
	cfg.Paths.ScratchDir = filepath.Join(dir, "scratch")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, sub := range cfg.ArtifactDirs() {
		info, err := os.Stat(sub)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", sub, err)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to parse, exists=%v err=%v", exists, err)
	}
}
