package export

import (
	"context"
	"time"

	"cutline/internal/render"
	"cutline/internal/validation"
)

// Result describes a finished export.
type Result struct {
	ExportID         string                  `json:"export_id"`
	OutputPath       string                  `json:"output_path"`
	Mode             render.Mode             `json:"mode"`
	ExpectedDuration float64                 `json:"expected_duration"`
	Report           validation.OutputReport `json:"report"`
	Warnings         []string                `json:"warnings,omitempty"`
	Elapsed          time.Duration           `json:"elapsed"`
}

// Handle tracks one running or finished export.
type Handle struct {
	ID         string
	OutputPath string
	Mode       render.Mode

	tracker *tracker
	cancel  context.CancelFunc
	done    chan struct{}
	result  Result
	err     error
}

// Progress returns the latest progress snapshot.
func (h *Handle) Progress() Progress {
	return h.tracker.snapshot()
}

// Cancel asks the export to stop. The running transcode is killed and the
// export ends in the error phase.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the export has finished and cleaned up.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the export finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
