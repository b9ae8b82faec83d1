package timeline

import (
	"fmt"
	"strings"
)

// Resolution selects the output frame size.
type Resolution string

const (
	ResolutionSource Resolution = "source"
	Resolution720p   Resolution = "720p"
	Resolution1080p  Resolution = "1080p"
	Resolution1440p  Resolution = "1440p"
	Resolution4K     Resolution = "4k"
	ResolutionCustom Resolution = "custom"
)

// Codec selects the video encoder family.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecH265 Codec = "h265"
)

// Quality is a coarse encode quality level.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ExportConfig describes the requested output.
type ExportConfig struct {
	OutputPath   string     `json:"output_path" yaml:"output_path"`
	Resolution   Resolution `json:"resolution" yaml:"resolution"`
	CustomWidth  int        `json:"custom_width,omitempty" yaml:"custom_width,omitempty"`
	CustomHeight int        `json:"custom_height,omitempty" yaml:"custom_height,omitempty"`
	Codec        Codec      `json:"codec" yaml:"codec"`
	Quality      Quality    `json:"quality" yaml:"quality"`
	TargetFPS    *float64   `json:"target_fps,omitempty" yaml:"target_fps,omitempty"`
	IncludeAudio bool       `json:"include_audio" yaml:"include_audio"`
}

// ParseResolution maps user input onto a Resolution. "4K" and "2160p" are
// accepted as aliases; unknown values fall back to source.
func ParseResolution(value string) Resolution {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "720p", "hd":
		return Resolution720p
	case "1080p", "fhd":
		return Resolution1080p
	case "1440p", "qhd":
		return Resolution1440p
	case "4k", "2160p", "uhd":
		return Resolution4K
	case "custom":
		return ResolutionCustom
	default:
		return ResolutionSource
	}
}

// Dimensions returns the fixed frame size for preset resolutions.
func (r Resolution) Dimensions() (int, int, bool) {
	switch ParseResolution(string(r)) {
	case Resolution720p:
		return 1280, 720, true
	case Resolution1080p:
		return 1920, 1080, true
	case Resolution1440p:
		return 2560, 1440, true
	case Resolution4K:
		return 3840, 2160, true
	default:
		return 0, 0, false
	}
}

// Normalized returns the codec, falling back to h264 for unknown values.
func (c Codec) Normalized() Codec {
	switch strings.ToLower(strings.TrimSpace(string(c))) {
	case "h265", "hevc", "x265":
		return CodecH265
	default:
		return CodecH264
	}
}

// Normalized returns the quality, falling back to medium for unknown values.
func (q Quality) Normalized() Quality {
	switch strings.ToLower(strings.TrimSpace(string(q))) {
	case "low":
		return QualityLow
	case "high":
		return QualityHigh
	default:
		return QualityMedium
	}
}

// FPS returns the requested frame rate or fallback when none is set.
func (c ExportConfig) FPS(fallback float64) float64 {
	if c.TargetFPS != nil && *c.TargetFPS > 0 {
		return *c.TargetFPS
	}
	return fallback
}

// Validate checks the fields that cannot be defaulted.
func (c ExportConfig) Validate() error {
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("output_path is required")
	}
	if ParseResolution(string(c.Resolution)) == ResolutionCustom {
		if c.CustomWidth <= 0 || c.CustomHeight <= 0 {
			return fmt.Errorf("custom resolution requires positive custom_width and custom_height")
		}
	}
	if c.TargetFPS != nil && *c.TargetFPS < 0 {
		return fmt.Errorf("target_fps must be positive")
	}
	return nil
}
