package whisper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type fakeExecutor struct {
	lastBinary string
	lastArgs   []string
	onRun      func(binary string, args []string)
	output     string
	err        error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) (string, error) {
	f.lastBinary = binary
	f.lastArgs = append([]string(nil), args...)
	if f.onRun != nil {
		f.onRun(binary, args)
	}
	return f.output, f.err
}

const sampleJSON = `{
  "text": " Hello world.",
  "language": "en",
  "segments": [
    {
      "text": " Hello world.",
      "start": 0.0,
      "end": 1.2,
      "words": [
        {"word": " Hello", "start": 0.0, "end": 0.6},
        {"word": " world.", "start": 0.6, "end": 1.2}
      ]
    }
  ]
}`

func TestTranscribeInvokesWhisperAndParsesJSON(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "clip.mp3")
	if err := os.WriteFile(audio, []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	exec := &fakeExecutor{
		onRun: func(string, []string) {
			jsonPath := filepath.Join(dir, "clip.json")
			if err := os.WriteFile(jsonPath, []byte(sampleJSON), 0o644); err != nil {
				t.Fatalf("write json: %v", err)
			}
		},
	}
	svc, err := New("whisper", Config{Model: "small", Device: DeviceCPU}, WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := svc.Transcribe(context.Background(), audio, dir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Language != "en" {
		t.Fatalf("language = %q", result.Language)
	}
	words := result.Words()
	if len(words) != 2 || words[0].Text != " Hello" || words[1].End != 1.2 {
		t.Fatalf("words = %+v", words)
	}

	foundModel := false
	for i, arg := range exec.lastArgs {
		if arg == "--model" && i+1 < len(exec.lastArgs) && exec.lastArgs[i+1] == "small" {
			foundModel = true
		}
	}
	if !foundModel {
		t.Fatalf("expected model flag in args %v", exec.lastArgs)
	}
}

func TestTranscribeRequiresSource(t *testing.T) {
	svc, _ := New("whisper", Config{}, WithExecutor(&fakeExecutor{}))
	if _, err := svc.Transcribe(context.Background(), "", t.TempDir()); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestLoadResultMissingFile(t *testing.T) {
	if _, err := LoadResult(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFixedDevice(t *testing.T) {
	probe := FixedDevice(DeviceCUDA)
	if probe() != DeviceCUDA {
		t.Fatal("expected fixed probe to return cuda")
	}
}
