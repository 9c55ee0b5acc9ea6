// Package whisper runs the whisper speech-to-text command line tool and
// parses its word-timestamped JSON output.
package whisper
