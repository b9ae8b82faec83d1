package planner

import (
	"fmt"

	"cutline/internal/timeline"
)

// fallbackWidth and fallbackHeight apply when the source size is unknown.
const (
	fallbackWidth  = 1920
	fallbackHeight = 1080
)

// Target is the frame size and rate every segment is normalized to.
type Target struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
}

// Valid reports whether the target can be rendered.
func (t Target) Valid() bool {
	return t.Width > 0 && t.Height > 0 && t.FPS > 0
}

func (t Target) String() string {
	return fmt.Sprintf("%dx%d@%s", t.Width, t.Height, factor(t.FPS))
}

// ResolveTarget picks the output frame size and rate. "source" uses the first
// clip's native size rounded down to even numbers; presets use fixed sizes;
// "custom" uses the configured size.
func ResolveTarget(cfg timeline.ExportConfig, validations []timeline.Validation, defaultFPS float64) (Target, error) {
	if defaultFPS <= 0 {
		defaultFPS = 30
	}
	target := Target{FPS: cfg.FPS(defaultFPS)}

	switch res := timeline.ParseResolution(string(cfg.Resolution)); res {
	case timeline.ResolutionCustom:
		if cfg.CustomWidth <= 0 || cfg.CustomHeight <= 0 {
			return Target{}, fmt.Errorf("custom resolution requires width and height, got %dx%d", cfg.CustomWidth, cfg.CustomHeight)
		}
		target.Width, target.Height = even(cfg.CustomWidth), even(cfg.CustomHeight)
	case timeline.ResolutionSource:
		target.Width, target.Height = fallbackWidth, fallbackHeight
		if len(validations) > 0 && validations[0].NativeWidth > 1 && validations[0].NativeHeight > 1 {
			target.Width, target.Height = even(validations[0].NativeWidth), even(validations[0].NativeHeight)
		}
	default:
		target.Width, target.Height, _ = res.Dimensions()
	}
	if !target.Valid() {
		return Target{}, fmt.Errorf("invalid render target %s", target)
	}
	return target, nil
}

// even rounds down to an even value; yuv420p requires even dimensions.
func even(v int) int {
	return v &^ 1
}
