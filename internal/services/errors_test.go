package services_test

import (
	"errors"
	"strings"
	"testing"

	"transvox/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrExtractionFailed, "extracting", "ffmpeg demux", "FFmpeg exited non-zero", base)
	if !errors.Is(err, services.ErrExtractionFailed) {
		t.Fatalf("expected extraction marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped cause to survive")
	}
	if !strings.Contains(err.Error(), "ffmpeg demux") {
		t.Fatalf("expected operation in message, got %q", err.Error())
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrMissingCredential, "transcribing", "precheck", "Hugging Face token not configured", nil)
	if !errors.Is(err, services.ErrMissingCredential) {
		t.Fatalf("expected credential marker, got %v", err)
	}
	if strings.Contains(err.Error(), "%!") {
		t.Fatalf("malformed message: %q", err.Error())
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := services.Wrap(nil, "", "", "", errors.New("boom"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool fallback, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}
