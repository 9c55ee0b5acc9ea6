// Package translating implements the pipeline stage that renders a
// transcript in the target language through a LibreTranslate-compatible API.
package translating
