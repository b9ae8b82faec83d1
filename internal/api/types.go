package api

import (
	"cutline/internal/devices"
	"cutline/internal/mediaimport"
	"cutline/internal/prerender"
	"cutline/internal/timeline"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ExportRequest starts an export. Wait blocks the request until the export
// finishes instead of returning its id immediately.
type ExportRequest struct {
	Clips  []timeline.Clip       `json:"clips"`
	Config timeline.ExportConfig `json:"config"`
	Wait   bool                  `json:"wait,omitempty"`
}

// ExportProgress describes one export's progress.
type ExportProgress struct {
	ExportID     string  `json:"exportId,omitempty"`
	Percentage   float64 `json:"percentage"`
	Phase        string  `json:"phase"`
	Message      string  `json:"message,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
	CurrentClip  string  `json:"currentClip,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
}

// ExportResult describes a finished export.
type ExportResult struct {
	ExportID         string   `json:"exportId"`
	OutputPath       string   `json:"outputPath"`
	Mode             string   `json:"mode"`
	ExpectedDuration float64  `json:"expectedDuration"`
	OutputDuration   float64  `json:"outputDuration"`
	OutputBytes      int64    `json:"outputBytes"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	Warnings         []string `json:"warnings"`
	ElapsedSeconds   float64  `json:"elapsedSeconds"`
}

// ExportRecord is a history entry.
type ExportRecord struct {
	ID               string         `json:"id"`
	Mode             string         `json:"mode"`
	OutputPath       string         `json:"outputPath"`
	Status           string         `json:"status"`
	Progress         ExportProgress `json:"progress"`
	ErrorMessage     string         `json:"errorMessage,omitempty"`
	ClipCount        int            `json:"clipCount"`
	ExpectedDuration float64        `json:"expectedDuration"`
	OutputDuration   float64        `json:"outputDuration,omitempty"`
	OutputBytes      int64          `json:"outputBytes,omitempty"`
	CreatedAt        string         `json:"createdAt,omitempty"`
	UpdatedAt        string         `json:"updatedAt,omitempty"`
}

// ExportListResponse wraps history entries.
type ExportListResponse struct {
	Exports []ExportRecord `json:"exports"`
}

// ExportLogResponse carries lines of a per-export log. Offset is passed back
// as ?offset= to fetch only what was written since.
type ExportLogResponse struct {
	ExportID string   `json:"exportId"`
	Lines    []string `json:"lines"`
	Offset   int64    `json:"offset"`
}

// ActiveExportsResponse wraps the progress of running exports.
type ActiveExportsResponse struct {
	Exports []ExportProgress `json:"exports"`
}

// PrerenderRequest renders one preview segment.
type PrerenderRequest struct {
	SegmentID  string           `json:"segmentId"`
	Clips      []prerender.Clip `json:"clips"`
	OutputPath string           `json:"outputPath,omitempty"`
}

// PathResponse carries a single filesystem path.
type PathResponse struct {
	Path string `json:"path"`
}

// CacheClearResponse reports a cleared prerender cache.
type CacheClearResponse struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// ImportRequest imports media files.
type ImportRequest struct {
	Paths []string `json:"paths"`
}

// MediaListResponse wraps imported media.
type MediaListResponse struct {
	Items []mediaimport.MediaItem `json:"items"`
}

// DevicesResponse wraps capture devices.
type DevicesResponse struct {
	Devices []devices.Device `json:"devices"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckStatus is one preflight check.
type CheckStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Status aggregates runtime information for API consumers.
type Status struct {
	Dependencies  []DependencyStatus `json:"dependencies"`
	Checks        []CheckStatus      `json:"checks"`
	ActiveExports []ExportProgress   `json:"activeExports"`
	Latest        ExportProgress     `json:"latest"`
	HistoryPath   string             `json:"historyPath,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
