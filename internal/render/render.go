package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cutline/internal/planner"
	"cutline/internal/timeline"
	"cutline/internal/transcode"
)

// Mode names a render strategy.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeSinglePass Mode = "single_pass"
)

// ErrGapsUnsupported is returned by the single-pass strategy when the gap
// policy forbids dropping gaps.
var ErrGapsUnsupported = errors.New("single-pass render does not support timeline gaps")

// ParseMode maps user input onto a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "sequential", "seq":
		return ModeSequential, nil
	case "single_pass", "single-pass", "singlepass", "fast":
		return ModeSinglePass, nil
	default:
		return "", fmt.Errorf("unknown render mode %q", value)
	}
}

// SegmentKind distinguishes clip segments from gap fillers.
type SegmentKind string

const (
	SegmentClip SegmentKind = "clip"
	SegmentGap  SegmentKind = "gap"
)

// Segment is one intermediate file of a sequential render. Optional segments
// may fail without failing the export.
type Segment struct {
	Kind     SegmentKind       `json:"kind"`
	Label    string            `json:"label"`
	Optional bool              `json:"optional"`
	Request  transcode.Request `json:"request"`
}

// Plan is the full directive set for one export: intermediate segments in
// timeline order followed by a single assembly step.
type Plan struct {
	Mode        Mode              `json:"mode"`
	Segments    []Segment         `json:"segments,omitempty"`
	Manifest    string            `json:"manifest,omitempty"`
	Assembly    transcode.Request `json:"assembly"`
	DroppedGaps []timeline.Gap    `json:"dropped_gaps,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// ClipSegments counts the non-optional segments.
func (p Plan) ClipSegments() int {
	count := 0
	for _, seg := range p.Segments {
		if seg.Kind == SegmentClip {
			count++
		}
	}
	return count
}

// Input is what a strategy needs to build a plan. Validations align with
// Timeline.Clips.
type Input struct {
	Timeline    timeline.Normalized
	Validations []timeline.Validation
	Config      timeline.ExportConfig
	Target      planner.Target
	WorkDir     string
	Output      string
}

func (in Input) validate() error {
	if len(in.Timeline.Clips) == 0 {
		return errors.New("render: timeline has no clips")
	}
	if len(in.Validations) != len(in.Timeline.Clips) {
		return fmt.Errorf("render: %d validations for %d clips", len(in.Validations), len(in.Timeline.Clips))
	}
	if strings.TrimSpace(in.Output) == "" {
		return errors.New("render: output path is required")
	}
	if !in.Target.Valid() {
		return fmt.Errorf("render: invalid target %s", in.Target)
	}
	return nil
}

// Strategy turns a normalized timeline into a Plan.
type Strategy interface {
	Name() Mode
	Build(ctx context.Context, in Input) (Plan, error)
}

// Select returns the strategy for mode.
func Select(mode Mode, p *planner.Planner, gapPolicy string, logger *slog.Logger) (Strategy, error) {
	switch mode {
	case ModeSequential:
		return NewSequential(p, logger), nil
	case ModeSinglePass:
		return NewSinglePass(p, gapPolicy, logger), nil
	default:
		return nil, fmt.Errorf("unknown render mode %q", mode)
	}
}
