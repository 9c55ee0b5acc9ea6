package config

import (
	"path/filepath"
	"strings"
)

// normalize expands every path field and derives unset per-kind directories
// from the library root.
func (c *Config) normalize() error {
	expanded, err := expandPath(c.Paths.LibraryDir)
	if err != nil {
		return err
	}
	c.Paths.LibraryDir = expanded

	derive := func(value *string, subdir string) error {
		if strings.TrimSpace(*value) == "" {
			*value = filepath.Join(c.Paths.LibraryDir, subdir)
			return nil
		}
		expanded, err := expandPath(*value)
		if err != nil {
			return err
		}
		*value = expanded
		return nil
	}

	if err := derive(&c.Paths.VideosDir, "videos"); err != nil {
		return err
	}
	if err := derive(&c.Paths.AudiosDir, "audios"); err != nil {
		return err
	}
	if err := derive(&c.Paths.TranscriptsDir, "transcripts"); err != nil {
		return err
	}
	if err := derive(&c.Paths.SynthesizedDir, "synthesized"); err != nil {
		return err
	}
	if err := derive(&c.Paths.ScratchDir, "scratch"); err != nil {
		return err
	}
	if err := derive(&c.Paths.LogDir, "logs"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.WatchDir) != "" {
		expanded, err := expandPath(c.Paths.WatchDir)
		if err != nil {
			return err
		}
		c.Paths.WatchDir = expanded
	}

	c.Whisper.Model = strings.ToLower(strings.TrimSpace(c.Whisper.Model))
	if c.Whisper.Model == "" {
		c.Whisper.Model = DefaultWhisperModel
	}
	c.Whisper.Device = strings.ToLower(strings.TrimSpace(c.Whisper.Device))

	c.Translation.BaseURL = strings.TrimRight(strings.TrimSpace(c.Translation.BaseURL), "/")
	c.Translation.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Translation.TargetLanguage))
	c.TTS.BaseURL = strings.TrimRight(strings.TrimSpace(c.TTS.BaseURL), "/")
	c.TTS.Language = strings.ToLower(strings.TrimSpace(c.TTS.Language))
	c.Diarization.SidecarURL = strings.TrimRight(strings.TrimSpace(c.Diarization.SidecarURL), "/")

	return nil
}
