package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Duration     string            `json:"duration"`
	BitRate      string            `json:"bit_rate"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	PixFmt       string            `json:"pix_fmt"`
	RFrameRate   string            `json:"r_frame_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	SampleRate   string            `json:"sample_rate"`
	Channels     int               `json:"channels"`
	Tags         map[string]string `json:"tags"`
	Disposition  map[string]int    `json:"disposition"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return Parse(output)
}

// Prober inspects files with a fixed ffprobe binary.
type Prober struct {
	Binary string
}

// Probe runs Inspect against path.
func (p Prober) Probe(ctx context.Context, path string) (Result, error) {
	return Inspect(ctx, p.Binary, path)
}

// Parse decodes a raw ffprobe JSON payload.
func Parse(payload []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = append([]byte(nil), payload...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countType("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countType("audio")
}

func (r Result) countType(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) && !stream.isAttachedPicture() {
			count++
		}
	}
	return count
}

// PrimaryVideo returns the first real video stream, skipping cover art.
func (r Result) PrimaryVideo() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") && !stream.isAttachedPicture() {
			return stream, true
		}
	}
	return Stream{}, false
}

// PrimaryAudio returns the default-flagged audio stream, or the first one.
func (r Result) PrimaryAudio() (Stream, bool) {
	var first *Stream
	for i := range r.Streams {
		stream := r.Streams[i]
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		if stream.Disposition["default"] == 1 {
			return stream, true
		}
		if first == nil {
			first = &r.Streams[i]
		}
	}
	if first == nil {
		return Stream{}, false
	}
	return *first, true
}

// HasAudio reports whether at least one audio stream is present.
func (r Result) HasAudio() bool {
	return r.AudioStreamCount() > 0
}

// Dimensions returns the primary video width and height, or zeros.
func (r Result) Dimensions() (int, int) {
	video, ok := r.PrimaryVideo()
	if !ok {
		return 0, 0
	}
	return video.Width, video.Height
}

// FrameRate returns the primary video frame rate, preferring avg_frame_rate.
// It returns 0 when no usable rate is reported.
func (r Result) FrameRate() float64 {
	video, ok := r.PrimaryVideo()
	if !ok {
		return 0
	}
	if fps := ParseRate(video.AvgFrameRate); fps > 0 {
		return fps
	}
	return ParseRate(video.RFrameRate)
}

// DurationSeconds returns the container duration in seconds. When the
// container omits it the longest stream duration is used; 0 means unknown.
func (r Result) DurationSeconds() float64 {
	if d := parseFloat(r.Format.Duration); d > 0 || math.IsNaN(d) {
		return d
	}
	longest := 0.0
	for _, stream := range r.Streams {
		if d := parseFloat(stream.Duration); d > longest {
			longest = d
		}
	}
	return longest
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// BitRate returns the container bitrate in bits per second, or 0 when unavailable.
func (r Result) BitRate() int64 {
	rate := parseFloat(r.Format.BitRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int64(rate)
}

// ParseRate parses an ffprobe rational such as "30000/1001" or a plain
// number. Zero denominators and malformed values yield 0.
func ParseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	if !found {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || parsed < 0 {
			return 0
		}
		return parsed
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0
	}
	if rate := n / d; rate > 0 {
		return rate
	}
	return 0
}

func (s Stream) isAttachedPicture() bool {
	return s.Disposition["attached_pic"] == 1
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
