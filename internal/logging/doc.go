// Package logging provides the console implementation of types.Logger used
// for per-file load diagnostics, and the log/slog setup for structured
// operational logs.
package logging
