package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for stage failures. Every stage converts its external-call
// errors into one of these before returning, so the workflow manager and the
// CLI can classify failures without inspecting message text.
var (
	ErrInvalidTimeRange    = errors.New("invalid time range")
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrSourceNotFound      = errors.New("source not found")
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrMissingCredential   = errors.New("missing credential")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrTranslationFailed   = errors.New("translation failed")
	ErrNoSynthesizableText = errors.New("no synthesizable text")
	ErrSynthesisFailed     = errors.New("synthesis failed")
	ErrExternalTool        = errors.New("external tool error")
	ErrConfiguration       = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserMessage extracts the human-readable portion of a wrapped stage error,
// suitable for surfacing to the caller.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
