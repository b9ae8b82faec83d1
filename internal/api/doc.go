// Package api exposes the export engine over HTTP and defines the
// wire-format types shared by the HTTP server and the CLI's JSON output.
//
// # Key Types
//
// ExportProgress: transport representation of an export's phase, percentage
// and current clip. ExportRecord: a finished or running export from history.
//
// ExportRequest/PrerenderRequest: request bodies carrying timeline clips.
//
// Status: dependency availability, preflight results and active exports.
//
// # Routes
//
// NewRouter mounts the command surface under /api: export and export-fast,
// progress (latest and per export), cancel, prerender, the prerender cache,
// media import, capture devices, and /playback for byte-range streaming of
// local media to the desktop webview.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Phases
// and modes are exposed as lowercase strings. Timestamps use RFC3339 with
// milliseconds. Errors are {"error", "code"} objects; the code is derived
// from the services error markers.
package api
