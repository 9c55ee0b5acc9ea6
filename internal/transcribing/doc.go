// Package transcribing implements the pipeline stage that turns audio into
// text with whisper, optionally attributing lines to speakers using the
// pyannote diarization sidecar.
package transcribing
