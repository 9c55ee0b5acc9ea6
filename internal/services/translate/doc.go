// Package translate is an HTTP client for a LibreTranslate-compatible
// translation and language-detection service.
package translate
