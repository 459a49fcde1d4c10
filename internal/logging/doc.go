// Package logging assembles structured slog loggers and formatting helpers used
// across viflac.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so session stages automatically
// tag log lines with the run ID, stage, and record ID. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Console output goes to stderr: stdout belongs to command output and the
// editor owns the terminal while it runs.
package logging
