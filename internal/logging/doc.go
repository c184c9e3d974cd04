// Package logging assembles structured slog loggers and formatting helpers
// used across platepipe components.
//
// It owns the console/JSON handler split, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with stage names, group keys, and correlation
// IDs. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
package logging
