package ytdlp

import (
	"context"
	"errors"
	"testing"
)

type fakeExecutor struct {
	lastBinary string
	lastArgs   []string
	output     string
	err        error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) (string, error) {
	f.lastBinary = binary
	f.lastArgs = append([]string(nil), args...)
	return f.output, f.err
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestTitleTakesLastLine(t *testing.T) {
	exec := &fakeExecutor{output: "WARNING: throttled\nMy Video Title\n"}
	client, err := New("yt-dlp", WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	title, err := client.Title(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if title != "My Video Title" {
		t.Fatalf("title = %q", title)
	}
	if exec.lastArgs[0] != "--print" || exec.lastArgs[1] != "title" {
		t.Fatalf("unexpected args %v", exec.lastArgs)
	}
}

func TestTitlePropagatesFailure(t *testing.T) {
	exec := &fakeExecutor{output: "ERROR: not found", err: errors.New("exit status 1")}
	client, _ := New("yt-dlp", WithExecutor(exec))
	if _, err := client.Title(context.Background(), "https://example.com/v"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDownloadBuildsSectionArgs(t *testing.T) {
	exec := &fakeExecutor{output: "[download] Destination: /tmp/out.mp4"}
	client, _ := New("yt-dlp", WithExecutor(exec))

	_, err := client.Download(context.Background(), Request{
		URL:            "https://example.com/v",
		OutputPath:     "/tmp/out.mp4",
		Section:        "*00:01:00-00:02:00",
		ForceKeyframes: true,
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	want := []string{
		"-f", DefaultFormat,
		"--no-playlist",
		"-o", "/tmp/out.mp4",
		"--download-sections", "*00:01:00-00:02:00",
		"--force-keyframes-at-cuts",
		"https://example.com/v",
	}
	if len(exec.lastArgs) != len(want) {
		t.Fatalf("args = %v, want %v", exec.lastArgs, want)
	}
	for i := range want {
		if exec.lastArgs[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, exec.lastArgs[i], want[i])
		}
	}
}

func TestDownloadOmitsSectionFlagsWhenUntrimmed(t *testing.T) {
	exec := &fakeExecutor{}
	client, _ := New("yt-dlp", WithExecutor(exec))
	if _, err := client.Download(context.Background(), Request{URL: "u", OutputPath: "/tmp/o.mp4"}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	for _, arg := range exec.lastArgs {
		if arg == "--download-sections" || arg == "--force-keyframes-at-cuts" {
			t.Fatalf("unexpected section flag in %v", exec.lastArgs)
		}
	}
}

func TestSanitizeTitle(t *testing.T) {
	cases := map[string]string{
		"Plain Title":              "Plain Title",
		"A/B: The \"Sequel\"?":     "AB The Sequel",
		"  spaced   out  ":         "spaced out",
		"under_score-hyphen 123":   "under_score-hyphen 123",
		"¡Hola señor! ¿Qué tal?":   "Hola seor Qu tal",
		"emoji 🎬 and <brackets>/": "emoji and brackets",
	}
	for in, want := range cases {
		if got := SanitizeTitle(in); got != want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMentionsFFmpeg(t *testing.T) {
	if !MentionsFFmpeg("ERROR: ffmpeg exited with code 1") {
		t.Fatal("expected ffmpeg mention to be detected")
	}
	if MentionsFFmpeg("ERROR: fragment not found") {
		t.Fatal("unexpected ffmpeg classification")
	}
}
