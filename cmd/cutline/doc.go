// Package main hosts the cutline CLI entrypoint and command graph.
//
// Commands run the export engine in-process: timeline exports with a live
// progress bar, prerendered preview segments, media import, history queries
// and device listing. `cutline serve` exposes the same operations over the
// local HTTP API for an editor front end.
//
// Keep this package thin. Behaviour belongs in the internal packages; commands
// only resolve configuration, wire components and render output.
package main
