// Package logging assembles structured slog loggers and formatting helpers used
// across cutline.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code tags log lines with
// export IDs, phases and clip IDs. TeeLogger duplicates a logger into a
// per-export log file, and ProgressSampler keeps progress logging to one line
// per bucket.
package logging
