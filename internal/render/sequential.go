package render

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"cutline/internal/logging"
	"cutline/internal/planner"
	"cutline/internal/transcode"
)

// Sequential renders every clip and gap to its own intermediate file and
// joins them with the concat demuxer using stream copy.
type Sequential struct {
	planner *planner.Planner
	logger  *slog.Logger
}

// NewSequential constructs the sequential strategy.
func NewSequential(p *planner.Planner, logger *slog.Logger) *Sequential {
	return &Sequential{planner: p, logger: logging.NewComponentLogger(logger, "render")}
}

func (s *Sequential) Name() Mode { return ModeSequential }

// Build plans one segment per clip, preceded by a filler for each significant
// gap. A gap that cannot be described is logged and left out.
func (s *Sequential) Build(ctx context.Context, in Input) (Plan, error) {
	if err := in.validate(); err != nil {
		return Plan{}, err
	}
	plan := Plan{
		Mode:     ModeSequential,
		Manifest: filepath.Join(in.WorkDir, ManifestName),
	}
	enc := s.planner.EncodeParams(in.Config)
	ordinal := 0
	next := func(suffix string) string {
		ordinal++
		return filepath.Join(in.WorkDir, fmt.Sprintf("segment_%03d%s.mp4", ordinal, suffix))
	}

	for i, clip := range in.Timeline.Clips {
		if err := ctx.Err(); err != nil {
			return Plan{}, err
		}
		if gap, ok := in.Timeline.GapBefore(i); ok {
			directive, err := s.planner.SynthesizeGap(gap, in.Target)
			if err != nil {
				msg := fmt.Sprintf("%s omitted: %v", planner.GapLabel(gap), err)
				plan.Warnings = append(plan.Warnings, msg)
				plan.DroppedGaps = append(plan.DroppedGaps, gap)
				logging.WarnWithContext(s.logger, "gap filler skipped", "gap_synthesis_failed",
					logging.String("gap", planner.GapLabel(gap)),
					logging.Error(err),
					logging.String(logging.FieldImpact, "output is shorter than the timeline"),
				)
			} else {
				plan.Segments = append(plan.Segments, Segment{
					Kind:     SegmentGap,
					Label:    directive.Label,
					Optional: true,
					Request:  s.planner.GapRequest(directive, enc, next("_gap")),
				})
			}
		}

		directive := s.planner.PlanClip(i+1, clip, in.Validations[i], in.Config, in.Target)
		plan.Segments = append(plan.Segments, Segment{
			Kind:    SegmentClip,
			Label:   directive.Label,
			Request: s.planner.Request(directive, enc, next("")),
		})
	}

	plan.Assembly = transcode.Request{
		Label: "concatenate",
		Inputs: []transcode.Input{{
			Path:    plan.Manifest,
			Format:  "concat",
			Options: []string{"-safe", "0"},
		}},
		Encode: transcode.StreamCopy(),
		Output: in.Output,
	}
	return plan, nil
}
