package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would break the pipeline
// at runtime. It is called by Load after normalization.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		problems = append(problems, "paths.library_dir must not be empty")
	}
	if !IsValidWhisperModel(c.Whisper.Model) {
		problems = append(problems, fmt.Sprintf("whisper.model %q is not one of %s", c.Whisper.Model, strings.Join(WhisperModels, ", ")))
	}
	switch c.Whisper.Device {
	case "", "cpu", "cuda":
	default:
		problems = append(problems, fmt.Sprintf("whisper.device %q must be cpu, cuda, or empty", c.Whisper.Device))
	}
	if c.Workflow.QueuePollInterval <= 0 {
		problems = append(problems, "workflow.queue_poll_interval must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	if c.Translation.TimeoutSeconds < 0 || c.TTS.TimeoutSeconds < 0 || c.Diarization.TimeoutSeconds < 0 {
		problems = append(problems, "timeouts must not be negative")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
