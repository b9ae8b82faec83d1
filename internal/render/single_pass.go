package render

import (
	"context"
	"fmt"
	"log/slog"

	"cutline/internal/config"
	"cutline/internal/logging"
	"cutline/internal/planner"
	"cutline/internal/transcode"
)

// SinglePass opens every clip as an input and joins them in one filter graph
// and one encode. Gaps are handled according to the configured policy.
type SinglePass struct {
	planner   *planner.Planner
	gapPolicy string
	logger    *slog.Logger
}

// NewSinglePass constructs the single-pass strategy. An empty policy drops gaps.
func NewSinglePass(p *planner.Planner, gapPolicy string, logger *slog.Logger) *SinglePass {
	if gapPolicy == "" {
		gapPolicy = config.GapPolicyDrop
	}
	return &SinglePass{planner: p, gapPolicy: gapPolicy, logger: logging.NewComponentLogger(logger, "render")}
}

func (s *SinglePass) Name() Mode { return ModeSinglePass }

// Build composes the filter graph. With gaps present the policy decides:
// drop them with a warning, fall back to the sequential plan, or fail.
func (s *SinglePass) Build(ctx context.Context, in Input) (Plan, error) {
	if err := in.validate(); err != nil {
		return Plan{}, err
	}
	plan := Plan{Mode: ModeSinglePass}

	if gaps := in.Timeline.Gaps; len(gaps) > 0 {
		switch s.gapPolicy {
		case config.GapPolicyError:
			return Plan{}, fmt.Errorf("%w: %d gap(s) detected", ErrGapsUnsupported, len(gaps))
		case config.GapPolicyFallback:
			s.logger.Info("timeline has gaps; using sequential render",
				logging.Int("gap_count", len(gaps)),
				logging.String(logging.FieldEventType, "single_pass_fallback"),
			)
			fallback, err := NewSequential(s.planner, s.logger).Build(ctx, in)
			if err != nil {
				return Plan{}, err
			}
			fallback.Warnings = append([]string{fmt.Sprintf("single-pass render fell back to sequential: %d gap(s)", len(gaps))}, fallback.Warnings...)
			return fallback, nil
		default:
			var dropped float64
			for _, gap := range gaps {
				dropped += gap.Duration
			}
			plan.DroppedGaps = append(plan.DroppedGaps, gaps...)
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("single-pass render dropped %d gap(s) totalling %ss", len(gaps), transcode.Seconds(dropped)))
			logging.WarnWithContext(s.logger, "single-pass render drops timeline gaps", "gaps_dropped",
				logging.Int("gap_count", len(gaps)),
				logging.Float64("dropped_seconds", dropped),
				logging.String(logging.FieldErrorHint, "use sequential export to keep gaps"),
				logging.String(logging.FieldImpact, "output is shorter than the timeline"),
			)
		}
	}

	clips := in.Timeline.Clips
	directives := make([]planner.ClipDirective, len(clips))
	for i, clip := range clips {
		if err := ctx.Err(); err != nil {
			return Plan{}, err
		}
		directives[i] = s.planner.PlanClip(i+1, clip, in.Validations[i], in.Config, in.Target)
	}

	enc := s.planner.EncodeParams(in.Config)
	enc.Extra = append(enc.Extra, "-movflags", "+faststart")
	plan.Assembly = s.planner.ConcatRequest("single-pass render", directives, enc, in.Output)
	return plan, nil
}
