// Package ffmpeg wraps the ffmpeg and ffprobe command line tools for audio
// demuxing and media duration probing.
package ffmpeg
