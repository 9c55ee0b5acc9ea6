// Package extracting implements the pipeline stage that rips the audio
// track from a video into an mp3 alongside the rest of the library.
package extracting
