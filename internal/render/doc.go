// Package render chooses how a normalized timeline becomes ffmpeg work.
//
// The sequential strategy renders each clip and gap filler to an intermediate
// file and joins them through a concat manifest with stream copy. The
// single-pass strategy opens every clip at once and merges them in a single
// filter graph; it cannot fill gaps, so a configured policy drops them, falls
// back to sequential, or fails. Both produce identical plans for identical
// input.
package render
