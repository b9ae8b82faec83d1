package validation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"cutline/internal/logging"
)

var (
	ErrOutputMissing  = errors.New("output file missing")
	ErrOutputTooSmall = errors.New("output file too small")
)

// OutputReport summarizes the inspected export. Warnings never fail an export.
type OutputReport struct {
	Path      string   `json:"path"`
	SizeBytes int64    `json:"size_bytes"`
	Duration  float64  `json:"duration"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ValidateOutput checks the produced file. A missing or undersized file is an
// error; duration drift, zero dimensions and probe failures become warnings.
func (v *Validator) ValidateOutput(ctx context.Context, path string, expectedDuration float64) (OutputReport, error) {
	report := OutputReport{Path: path}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return report, fmt.Errorf("%w: %s", ErrOutputMissing, path)
	}
	report.SizeBytes = info.Size()
	if report.SizeBytes < v.minOutputBytes {
		return report, fmt.Errorf("%w: %s is %d bytes (minimum %d)", ErrOutputTooSmall, path, report.SizeBytes, v.minOutputBytes)
	}

	probe, err := v.prober.Probe(ctx, path)
	if err != nil {
		v.warn(&report, "output_probe_failed", fmt.Sprintf("could not probe output: %v", err))
		return report, nil
	}
	report.Duration = probe.DurationSeconds()
	report.Width, report.Height = probe.Dimensions()

	if math.IsNaN(report.Duration) || math.Abs(report.Duration-expectedDuration) > v.durationTolerance {
		v.warn(&report, "output_duration_drift",
			fmt.Sprintf("output duration %.3fs differs from expected %.3fs", report.Duration, expectedDuration))
	}
	if report.Width == 0 || report.Height == 0 {
		v.warn(&report, "output_zero_dimensions",
			fmt.Sprintf("output reports %dx%d video dimensions", report.Width, report.Height))
	}
	return report, nil
}

func (v *Validator) warn(report *OutputReport, eventType, message string) {
	report.Warnings = append(report.Warnings, message)
	logging.WarnWithContext(v.logger, "output validation warning", eventType,
		logging.String("path", report.Path),
		logging.String("detail", message),
		logging.String(logging.FieldErrorHint, "play the output to confirm it is usable"),
		logging.String(logging.FieldImpact, "export kept; output may differ from the timeline"),
	)
}
