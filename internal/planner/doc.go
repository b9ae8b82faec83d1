// Package planner derives the ffmpeg filter chains and encode settings for
// each clip and timeline gap.
//
// Every segment is normalized to the same frame size, frame rate, pixel
// format and audio layout so the results can be joined with stream copy.
// Speed changes scale video timestamps and split audio tempo into atempo
// steps within the filter's supported range.
package planner
