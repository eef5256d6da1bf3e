// Package logging assembles the structured slog loggers used across
// discvault.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes small attribute helpers so callers emit fields with
// consistent keys. Log output defaults to stderr; stdout is reserved for
// reports and operator prompts. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
