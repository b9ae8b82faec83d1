// Package transcode is the typed boundary to ffmpeg.
//
// A Request describes inputs, filters, encode settings and the output file.
// Build turns it into argv and FFmpegRunner executes it, capturing stderr.
// Failures are returned as *Error with a Fault category matched from stderr,
// falling back to the last non-empty diagnostic line.
package transcode
