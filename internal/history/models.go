package history

import "time"

// Status represents the lifecycle of a recorded export.
type Status string

const (
	StatusRunning   Status = "running"
	StatusComplete  Status = "complete"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status represents a finished export.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Export is one recorded export run.
type Export struct {
	ID               string
	Mode             string
	OutputPath       string
	Status           Status
	Phase            string
	Percent          float64
	Message          string
	ErrorMessage     string
	ClipCount        int
	ExpectedDuration float64
	OutputDuration   float64
	OutputBytes      int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Outcome captures the result of a finished export.
type Outcome struct {
	Status         Status
	Phase          string
	Percent        float64
	Message        string
	ErrorMessage   string
	OutputDuration float64
	OutputBytes    int64
}

// Segment is a cached prerendered timeline segment.
type Segment struct {
	Path        string
	Fingerprint string
	SizeBytes   int64
	ClipCount   int
	Duration    float64
	RenderedAt  time.Time
}
