// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect runs ffprobe and returns a parsed Result; Parse decodes a payload
// captured elsewhere. Helper methods on Result expose the primary video and
// audio streams, frame rate, dimensions and duration.
package ffprobe
