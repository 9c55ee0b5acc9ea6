package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending      Status = "pending"
	StatusDownloading  Status = "downloading"
	StatusDownloaded   Status = "downloaded"
	StatusExtracting   Status = "extracting"
	StatusExtracted    Status = "extracted"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusTranslating  Status = "translating"
	StatusTranslated   Status = "translated"
	StatusSynthesizing Status = "synthesizing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusExtracting,
	StatusExtracted,
	StatusTranscribing,
	StatusTranscribed,
	StatusTranslating,
	StatusTranslated,
	StatusSynthesizing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusExtracting:   {},
	StatusTranscribing: {},
	StatusTranslating:  {},
	StatusSynthesizing: {},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID               int64
	Source           string
	Title            string
	Status           Status
	VideoFile        string
	AudioFile        string
	TranscriptFile   string
	TranslatedFile   string
	SynthesizedFile  string
	DetectedLanguage string
	TargetLanguage   string
	ModelSize        string
	Diarize          bool
	Synthesize       bool
	TrimStart        string
	TrimEnd          string
	ErrorMessage     string
	ProgressStage    string
	ProgressPercent  float64
	ProgressMessage  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Options carries per-item processing preferences supplied at enqueue time.
type Options struct {
	Title          string
	ModelSize      string
	TargetLanguage string
	Diarize        bool
	Synthesize     bool
	TrimStart      string
	TrimEnd        string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// InitProgress resets progress fields for a new stage. ErrorMessage is cleared
// so a retried item does not carry a stale failure.
func (i *Item) InitProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.ProgressStage = "Failed"
}

// Label returns the best human identifier for the item.
func (i Item) Label() string {
	if strings.TrimSpace(i.Title) != "" {
		return i.Title
	}
	if strings.TrimSpace(i.Source) != "" {
		return i.Source
	}
	return "(untitled)"
}
