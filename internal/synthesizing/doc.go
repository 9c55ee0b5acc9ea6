// Package synthesizing implements the final pipeline stage that voices
// transcript text through a text-to-speech service, plus the manual
// text-to-speech entry point.
package synthesizing
