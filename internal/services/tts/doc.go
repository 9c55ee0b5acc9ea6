// Package tts synthesizes speech audio from text through an HTTP
// text-to-speech endpoint compatible with the Google Translate TTS API.
package tts
