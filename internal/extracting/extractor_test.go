package extracting_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"transvox/internal/extracting"
	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/services"
	"transvox/internal/services/ffmpeg"
	"transvox/internal/testsupport"
)

type fakeExecutor struct {
	extractErr error
	calls      [][]string
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) (string, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	if strings.Contains(binary, "probe") {
		return "42.50\n", nil
	}
	return "", f.extractErr
}

func newExtractor(t *testing.T, exec *fakeExecutor) (*extracting.Extractor, *queue.Store, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	client, err := ffmpeg.New("ffmpeg", "ffprobe", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}
	return extracting.NewExtractorWithClient(cfg, store, logging.NewNop(), client), store, cfg.Paths.AudiosDir
}

func TestExecuteExtractsAudio(t *testing.T) {
	exec := &fakeExecutor{}
	handler, store, audiosDir := newExtractor(t, exec)
	ctx := context.Background()

	video := filepath.Join(t.TempDir(), "interview.mp4")
	testsupport.WriteFile(t, video, "video bytes")

	item, err := store.NewVideoFile(ctx, video, queue.Options{})
	if err != nil {
		t.Fatalf("NewVideoFile failed: %v", err)
	}
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := filepath.Join(audiosDir, "interview.mp3")
	if item.AudioFile != want {
		t.Fatalf("audio file %q, want %q", item.AudioFile, want)
	}

	var ffmpegCall []string
	for _, call := range exec.calls {
		if call[0] == "ffmpeg" {
			ffmpegCall = call
		}
	}
	if ffmpegCall == nil {
		t.Fatal("expected ffmpeg invocation")
	}
	joined := strings.Join(ffmpegCall, " ")
	for _, fragment := range []string{"-q:a 0", "-map a", "-y"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("missing %q in args: %s", fragment, joined)
		}
	}
}

func TestExecuteMissingVideoFile(t *testing.T) {
	exec := &fakeExecutor{}
	handler, store, _ := newExtractor(t, exec)
	ctx := context.Background()

	item, err := store.NewVideoFile(ctx, "/nonexistent/clip.mp4", queue.Options{})
	if err != nil {
		t.Fatalf("NewVideoFile failed: %v", err)
	}
	if err := handler.Execute(ctx, item); !errors.Is(err, services.ErrSourceNotFound) {
		t.Fatalf("expected source not found, got %v", err)
	}
	if len(exec.calls) != 0 {
		t.Fatal("ffmpeg should not run when source missing")
	}
}

func TestExecuteWrapsFFmpegFailure(t *testing.T) {
	exec := &fakeExecutor{extractErr: fmt.Errorf("exit status 1")}
	handler, store, _ := newExtractor(t, exec)
	ctx := context.Background()

	video := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, video, "video bytes")

	item, err := store.NewVideoFile(ctx, video, queue.Options{})
	if err != nil {
		t.Fatalf("NewVideoFile failed: %v", err)
	}
	if err := handler.Execute(ctx, item); !errors.Is(err, services.ErrExtractionFailed) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
}
