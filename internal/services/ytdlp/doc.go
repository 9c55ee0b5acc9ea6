// Package ytdlp wraps the yt-dlp command line downloader: title probing,
// constrained downloads with optional section extraction, and the output
// sanitization rules the acquisition stage relies on.
package ytdlp
