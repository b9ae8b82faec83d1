// Package export orchestrates timeline exports.
//
// An export moves through preparing, validating, processing_clips,
// concatenating, finalizing and validating_output before reaching complete,
// or error from any phase. Each export owns a workspace under the temp
// directory that is removed on every exit path, holds an advisory lock on
// its output path, and publishes progress through its Handle. Percentages
// follow fixed bands and never decrease.
package export
