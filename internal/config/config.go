package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the artifact directory layout. Every pipeline product lands
// in a per-kind subdirectory under LibraryDir so a human can locate any
// intermediate artifact without a manifest.
type Paths struct {
	LibraryDir     string `toml:"library_dir"`
	VideosDir      string `toml:"videos_dir"`
	AudiosDir      string `toml:"audios_dir"`
	TranscriptsDir string `toml:"transcripts_dir"`
	SynthesizedDir string `toml:"synthesized_dir"`
	ScratchDir     string `toml:"scratch_dir"`
	LogDir         string `toml:"log_dir"`
	WatchDir       string `toml:"watch_dir"`
}

// Tools names the external binaries the pipeline shells out to.
type Tools struct {
	YtDlp   string `toml:"ytdlp"`
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	Whisper string `toml:"whisper"`
}

// Whisper contains speech-to-text settings.
type Whisper struct {
	// Model selects the size/accuracy tradeoff: tiny, base, small, medium, large.
	Model string `toml:"model"`
	// Device forces a compute device ("cuda" or "cpu"). Empty means probe.
	Device string `toml:"device"`
}

// Diarization contains speaker-diarization settings.
type Diarization struct {
	// SidecarURL is the base URL of the pyannote HTTP sidecar.
	SidecarURL string `toml:"sidecar_url"`
	// HFToken is the Hugging Face token the sidecar needs to load the
	// pretrained pipeline.
	HFToken string `toml:"hf_token"`
	// Model is the pretrained pipeline identifier.
	Model string `toml:"model"`
	// TimeoutSeconds bounds a single diarization call.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Translation contains settings for the external translation service.
type Translation struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TargetLanguage string `toml:"target_language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTS contains settings for the text-to-speech service.
type TTS struct {
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains queue processing intervals.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for transvox.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Tools       Tools       `toml:"tools"`
	Whisper     Whisper     `toml:"whisper"`
	Diarization Diarization `toml:"diarization"`
	Translation Translation `toml:"translation"`
	TTS         TTS         `toml:"tts"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/transvox/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was found; when none exists the defaults are returned.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("transvox.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ArtifactDirs returns every per-kind artifact directory.
func (c *Config) ArtifactDirs() []string {
	return []string{
		c.Paths.VideosDir,
		c.Paths.AudiosDir,
		c.Paths.TranscriptsDir,
		c.Paths.SynthesizedDir,
		c.Paths.ScratchDir,
	}
}

// EnsureDirectories creates the artifact and log directories idempotently.
// The watch directory is created best-effort since the watch command is
// optional.
func (c *Config) EnsureDirectories() error {
	dirs := append(c.ArtifactDirs(), c.Paths.LogDir)
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.WatchDir) != "" {
		_ = os.MkdirAll(c.Paths.WatchDir, 0o755)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
