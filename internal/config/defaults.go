package config

// Default whisper model size; larger is slower and more accurate.
const DefaultWhisperModel = "medium"

// WhisperModels lists the accepted model size selectors.
var WhisperModels = []string{"tiny", "base", "small", "medium", "large"}

// Default returns the built-in configuration values.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: "~/transvox",
			LogDir:     "~/transvox/logs",
		},
		Tools: Tools{
			YtDlp:   "yt-dlp",
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			Whisper: "whisper",
		},
		Whisper: Whisper{
			Model: DefaultWhisperModel,
		},
		Diarization: Diarization{
			SidecarURL:     "http://127.0.0.1:8388",
			Model:          "pyannote/speaker-diarization-3.1",
			TimeoutSeconds: 600,
		},
		Translation: Translation{
			BaseURL:        "http://127.0.0.1:5000",
			TargetLanguage: "es",
			TimeoutSeconds: 60,
		},
		TTS: TTS{
			BaseURL:        "https://translate.google.com",
			Language:       "es",
			TimeoutSeconds: 60,
		},
		Workflow: Workflow{
			QueuePollInterval: 2,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

// IsValidWhisperModel reports whether the selector names a known model size.
func IsValidWhisperModel(model string) bool {
	for _, known := range WhisperModels {
		if model == known {
			return true
		}
	}
	return false
}
