// Package downloading implements the pipeline stage that fetches remote
// video sources through yt-dlp, including optional keyframe-aligned trims.
package downloading
