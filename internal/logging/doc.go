// Package logging assembles structured slog loggers and formatting helpers used
// across meetscribe.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, stages and recording names. Logs go to stderr and, when
// a log directory is configured, to <log_dir>/meetscribe.log; stdout stays
// free for command output.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
