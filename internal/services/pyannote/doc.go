// Package pyannote is an HTTP client for a pyannote speaker-diarization
// sidecar, returning speaker turns in the order the model emitted them.
package pyannote
