// Package language normalizes language identifiers across the services the
// pipeline talks to: whisper reports full names or 2-letter codes, the
// translation API wants ISO 639-1, and users type whatever they like.
package language
