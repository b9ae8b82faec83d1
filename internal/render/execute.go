package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cutline/internal/logging"
	"cutline/internal/transcode"
)

// Hooks observe plan execution. Nil fields are ignored.
type Hooks struct {
	// SegmentStarted is called before segment index (0-based) of total runs.
	SegmentStarted func(index, total int, seg Segment)
	// Assembling is called before the final assembly step.
	Assembling func(plan Plan)
}

// Execute runs the plan's segments one at a time, writes the manifest for
// the segments that were produced and runs the assembly. Optional segments
// that fail are logged and left out. It returns the warnings accumulated
// while building and executing the plan.
func Execute(ctx context.Context, runner transcode.Runner, plan Plan, hooks Hooks, logger *slog.Logger) ([]string, error) {
	logger = logging.NewComponentLogger(logger, "render")
	warnings := append([]string(nil), plan.Warnings...)

	if len(plan.Segments) > 0 {
		produced := make([]string, 0, len(plan.Segments))
		for i, seg := range plan.Segments {
			if err := ctx.Err(); err != nil {
				return warnings, err
			}
			if hooks.SegmentStarted != nil {
				hooks.SegmentStarted(i, len(plan.Segments), seg)
			}
			if _, err := runner.Run(ctx, seg.Request); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return warnings, ctxErr
				}
				if !seg.Optional {
					return warnings, err
				}
				warnings = append(warnings, fmt.Sprintf("%s omitted: %v", seg.Label, err))
				logging.WarnWithContext(logger, "optional segment failed; omitting", "segment_omitted",
					logging.String("segment", seg.Label),
					logging.Error(err),
					logging.String(logging.FieldImpact, "output is shorter than the timeline"),
				)
				continue
			}
			produced = append(produced, seg.Request.Output)
		}
		if len(produced) == 0 {
			return warnings, errors.New("render produced no segments")
		}
		if err := WriteManifest(plan.Manifest, produced); err != nil {
			return warnings, err
		}
	}

	if hooks.Assembling != nil {
		hooks.Assembling(plan)
	}
	if _, err := runner.Run(ctx, plan.Assembly); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return warnings, ctxErr
		}
		return warnings, err
	}
	return warnings, nil
}
