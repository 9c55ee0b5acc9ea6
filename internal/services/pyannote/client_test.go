package pyannote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestDiarizeParsesTurnsInOrder(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/diarize" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if _, _, err := r.FormFile("audio"); err != nil {
			t.Errorf("missing audio part: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"segments": []map[string]any{
				{"speaker": "SPEAKER_01", "start": 3.0, "end": 5.0},
				{"speaker": "SPEAKER_00", "start": 0.0, "end": 2.5},
			},
		})
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Token: "hf_test", Model: "pyannote/speaker-diarization-3.1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	turns, err := client.Diarize(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("turns = %+v", turns)
	}
	// Emission order preserved, not sorted.
	if turns[0].Speaker != "SPEAKER_01" || turns[1].Speaker != "SPEAKER_00" {
		t.Fatalf("expected emission order preserved, got %+v", turns)
	}
	if gotAuth != "Bearer hf_test" {
		t.Fatalf("auth header = %q", gotAuth)
	}
}

func TestDiarizeSurfacesSidecarError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "pipeline load failed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := New(Config{BaseURL: server.URL})
	if _, err := client.Diarize(context.Background(), writeAudio(t)); err == nil {
		t.Fatal("expected error from sidecar failure")
	}
}

func TestHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, _ := New(Config{BaseURL: server.URL, Timeout: time.Second})
	if !client.Healthy(context.Background()) {
		t.Fatal("expected healthy sidecar")
	}
}

func TestHasCredential(t *testing.T) {
	client, _ := New(Config{BaseURL: "http://127.0.0.1:1", Token: "  "})
	if client.HasCredential() {
		t.Fatal("whitespace token should not count as a credential")
	}
	client, _ = New(Config{BaseURL: "http://127.0.0.1:1", Token: "hf_x"})
	if !client.HasCredential() {
		t.Fatal("expected credential to be detected")
	}
}
