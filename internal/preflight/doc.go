// Package preflight provides readiness checks for the filesystem paths and
// external binaries cutline depends on.
//
// These checks run in two contexts:
//   - The export orchestrator calls RunAll before a render starts. If any
//     check fails the export errors out before any ffmpeg work.
//   - The CLI "cutline status" command uses the individual checks to display
//     environment health.
package preflight
