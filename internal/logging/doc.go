// Package logging wraps log/slog with the console and JSON handlers used by
// the CLI, plus the standardized field keys and context helpers shared by the
// pipeline stages.
package logging
