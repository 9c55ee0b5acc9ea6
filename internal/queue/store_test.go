package queue_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"transvox/internal/queue"
	"transvox/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewSource(ctx, "https://example.com/watch?v=abc", queue.Options{TargetLanguage: "es"})
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Source != "https://example.com/watch?v=abc" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
	if fetched.TargetLanguage != "es" {
		t.Fatalf("expected target language persisted, got %q", fetched.TargetLanguage)
	}
}

func TestOpenRejectsMismatchedSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	path := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db for tampering: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = ?", 99); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close tampered db: %v", err)
	}

	if _, err := queue.Open(cfg); !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestLocalFileEntryPoints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	video, err := store.NewVideoFile(ctx, "/media/clips/interview.mp4", queue.Options{})
	if err != nil {
		t.Fatalf("NewVideoFile failed: %v", err)
	}
	if video.Status != queue.StatusDownloaded {
		t.Fatalf("video entry status: got %s", video.Status)
	}
	if video.VideoFile != "/media/clips/interview.mp4" {
		t.Fatalf("video file not recorded: %#v", video)
	}
	if video.Title != "interview" {
		t.Fatalf("expected title inferred from path, got %q", video.Title)
	}

	audio, err := store.NewAudioFile(ctx, "/media/clips/interview.mp3", queue.Options{Diarize: true})
	if err != nil {
		t.Fatalf("NewAudioFile failed: %v", err)
	}
	if audio.Status != queue.StatusExtracted {
		t.Fatalf("audio entry status: got %s", audio.Status)
	}
	if !audio.Diarize {
		t.Fatal("expected diarize flag persisted")
	}

	transcript, err := store.NewTranscriptFile(ctx, "/media/clips/interview.txt", queue.Options{Synthesize: true})
	if err != nil {
		t.Fatalf("NewTranscriptFile failed: %v", err)
	}
	if transcript.Status != queue.StatusTranscribed {
		t.Fatalf("transcript entry status: got %s", transcript.Status)
	}
	if !transcript.Synthesize {
		t.Fatal("expected synthesize flag persisted")
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewSource(t, store, "https://example.com/v", queue.Options{})
	item.Status = queue.StatusTranscribed
	item.Title = "Renamed"
	item.AudioFile = "/tmp/renamed.mp3"
	item.TranscriptFile = "/tmp/renamed_transcripcion.txt"
	item.DetectedLanguage = "en"
	item.SetProgress("Transcribing", "done", 100)
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusTranscribed {
		t.Fatalf("status not persisted: %s", fetched.Status)
	}
	if fetched.DetectedLanguage != "en" || fetched.TranscriptFile != "/tmp/renamed_transcripcion.txt" {
		t.Fatalf("fields not persisted: %#v", fetched)
	}
	if fetched.ProgressPercent != 100 {
		t.Fatalf("progress not persisted: %v", fetched.ProgressPercent)
	}
}

func TestNextForStatusesOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewSource(t, store, "https://example.com/1", queue.Options{})
	testsupport.NewSource(t, store, "https://example.com/2", queue.Options{})

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending item, got %#v", next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusSynthesizing)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no item, got %#v", none)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cases := []struct {
		name          string
		initialStatus queue.Status
		expected      queue.Status
	}{
		{"downloading", queue.StatusDownloading, queue.StatusPending},
		{"extracting", queue.StatusExtracting, queue.StatusDownloaded},
		{"transcribing", queue.StatusTranscribing, queue.StatusExtracted},
		{"translating", queue.StatusTranslating, queue.StatusTranscribed},
		{"synthesizing", queue.StatusSynthesizing, queue.StatusTranslated},
	}
	var ids []int64
	for i, tc := range cases {
		item := testsupport.NewSource(t, store, fmt.Sprintf("https://example.com/%d", i), queue.Options{})
		item.Status = tc.initialStatus
		item.ProgressStage = tc.name
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(cases) {
		t.Fatalf("expected %d items reset, got %d", len(cases), count)
	}

	for idx, tc := range cases {
		updated, err := store.GetByID(ctx, ids[idx])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != tc.expected {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.expected, updated.Status)
		}
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	failed := testsupport.NewSource(t, store, "https://example.com/fail", queue.Options{})
	failed.SetFailed("download exploded")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	healthy := testsupport.NewSource(t, store, "https://example.com/ok", queue.Options{})

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried item, got %d", count)
	}

	retried, err := store.GetByID(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retried.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", retried.Status)
	}
	if retried.ErrorMessage != "" {
		t.Fatalf("expected error cleared, got %q", retried.ErrorMessage)
	}
	if _, err := store.GetByID(ctx, healthy.ID); err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
}

func TestRetryFailedResumesFromArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewSource(t, store, "https://example.com/late-failure", queue.Options{})
	item.VideoFile = "/library/videos/talk.mp4"
	item.AudioFile = "/library/audios/talk.mp3"
	item.TranscriptFile = "/library/transcripts/talk_transcripcion.txt"
	item.SetFailed("translation exploded")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := store.RetryFailed(ctx, item.ID); err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}

	retried, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retried.Status != queue.StatusTranscribed {
		t.Fatalf("expected transcribed after retry, got %s", retried.Status)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewSource(t, store, "https://example.com/a", queue.Options{})
	done := testsupport.NewSource(t, store, "https://example.com/b", queue.Options{})
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	busy := testsupport.NewSource(t, store, "https://example.com/c", queue.Options{})
	busy.Status = queue.StatusTranscribing
	if err := store.Update(ctx, busy); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusPending] != 1 || stats[queue.StatusCompleted] != 1 || stats[queue.StatusTranscribing] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Processing != 1 || health.Completed != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}

func TestRemoveAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewSource(t, store, "https://example.com/x", queue.Options{})
	removed, err := store.Remove(ctx, item.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected item removed")
	}
	removed, err = store.Remove(ctx, item.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed {
		t.Fatal("expected no item to remove")
	}

	testsupport.NewSource(t, store, "https://example.com/y", queue.Options{})
	testsupport.NewSource(t, store, "https://example.com/z", queue.Options{})
	cleared, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cleared != 2 {
		t.Fatalf("expected 2 cleared, got %d", cleared)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Pending "); !ok || status != queue.StatusPending {
		t.Fatalf("ParseStatus pending: got %q %v", status, ok)
	}
	if _, ok := queue.ParseStatus("nonsense"); ok {
		t.Fatal("expected unknown status to fail")
	}
	if _, ok := queue.ParseStatus(""); ok {
		t.Fatal("expected empty status to fail")
	}
}
