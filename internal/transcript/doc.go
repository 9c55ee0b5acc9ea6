// Package transcript merges word-level transcription timestamps with speaker
// diarization turns into speaker-attributed segments, and handles the
// transcript text formats the pipeline reads and writes.
package transcript
