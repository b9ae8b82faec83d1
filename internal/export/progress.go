package export

import (
	"sync"
	"time"
)

// Phase is a step of the export state machine.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhasePreparing        Phase = "preparing"
	PhaseValidating       Phase = "validating"
	PhaseProcessingClips  Phase = "processing_clips"
	PhaseConcatenating    Phase = "concatenating"
	PhaseFinalizing       Phase = "finalizing"
	PhaseValidatingOutput Phase = "validating_output"
	PhaseComplete         Phase = "complete"
	PhaseError            Phase = "error"
)

// Terminal reports whether no further transitions follow.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// Percentage bands per phase.
const (
	bandValidatingStart   = 0.0
	bandValidatingEnd     = 10.0
	bandProcessingStart   = 10.0
	bandProcessingEnd     = 70.0
	bandConcatenatingEnd  = 90.0
	bandFinalizing        = 90.0
	bandValidatingOutput  = 95.0
	bandComplete          = 100.0
	processingBandPercent = bandProcessingEnd - bandProcessingStart
)

// Progress is a snapshot of one export.
type Progress struct {
	ExportID         string    `json:"export_id,omitempty"`
	Percentage       float64   `json:"percentage"`
	Phase            Phase     `json:"phase"`
	Message          string    `json:"message,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CurrentClipLabel string    `json:"current_clip_label,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IdleProgress is reported before any export has started.
func IdleProgress() Progress {
	return Progress{Phase: PhaseIdle}
}

// tracker guards one export's progress. Percentages never decrease and a
// terminal phase is never left.
type tracker struct {
	mu       sync.RWMutex
	progress Progress
	onChange func(Progress)
}

func newTracker(id string, onChange func(Progress)) *tracker {
	return &tracker{
		progress: Progress{ExportID: id, Phase: PhasePreparing, Message: "Preparing export", UpdatedAt: time.Now()},
		onChange: onChange,
	}
}

func (t *tracker) snapshot() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress
}

func (t *tracker) update(phase Phase, percent float64, message, clipLabel string) {
	t.mu.Lock()
	if t.progress.Phase.Terminal() {
		t.mu.Unlock()
		return
	}
	t.progress.Phase = phase
	if percent > t.progress.Percentage {
		t.progress.Percentage = min(percent, bandComplete)
	}
	t.progress.Message = message
	t.progress.CurrentClipLabel = clipLabel
	t.progress.UpdatedAt = time.Now()
	snap := t.progress
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange(snap)
	}
}

func (t *tracker) fail(message string) {
	t.mu.Lock()
	if t.progress.Phase.Terminal() {
		t.mu.Unlock()
		return
	}
	t.progress.Phase = PhaseError
	t.progress.ErrorMessage = message
	t.progress.Message = "Export failed"
	t.progress.UpdatedAt = time.Now()
	snap := t.progress
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange(snap)
	}
}

// processingPercent maps segment index (0-based) of total onto the
// processing band.
func processingPercent(index, total int) float64 {
	if total <= 0 {
		return bandProcessingStart
	}
	return bandProcessingStart + processingBandPercent*float64(index)/float64(total)
}
