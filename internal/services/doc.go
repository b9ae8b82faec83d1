// Package services defines shared utilities consumed by the export pipeline
// and the command surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp export IDs, phase names, clip IDs and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent history statuses (failed vs cancelled).
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
