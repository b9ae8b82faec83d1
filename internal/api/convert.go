package api

import (
	"time"

	"cutline/internal/deps"
	"cutline/internal/export"
	"cutline/internal/history"
	"cutline/internal/preflight"
)

// FromProgress converts an export progress snapshot to its API representation.
func FromProgress(p export.Progress) ExportProgress {
	dto := ExportProgress{
		ExportID:     p.ExportID,
		Percentage:   p.Percentage,
		Phase:        string(p.Phase),
		Message:      p.Message,
		ErrorMessage: p.ErrorMessage,
		CurrentClip:  p.CurrentClipLabel,
	}
	dto.UpdatedAt = formatTime(p.UpdatedAt)
	return dto
}

// FromProgressSlice converts several snapshots, preserving order.
func FromProgressSlice(items []export.Progress) []ExportProgress {
	out := make([]ExportProgress, 0, len(items))
	for _, p := range items {
		out = append(out, FromProgress(p))
	}
	return out
}

// FromResult converts a finished export.
func FromResult(r export.Result) ExportResult {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return ExportResult{
		ExportID:         r.ExportID,
		OutputPath:       r.OutputPath,
		Mode:             string(r.Mode),
		ExpectedDuration: r.ExpectedDuration,
		OutputDuration:   r.Report.Duration,
		OutputBytes:      r.Report.SizeBytes,
		Width:            r.Report.Width,
		Height:           r.Report.Height,
		Warnings:         warnings,
		ElapsedSeconds:   r.Elapsed.Seconds(),
	}
}

// FromHistory converts a history record.
func FromHistory(rec *history.Export) ExportRecord {
	if rec == nil {
		return ExportRecord{}
	}
	return ExportRecord{
		ID:         rec.ID,
		Mode:       rec.Mode,
		OutputPath: rec.OutputPath,
		Status:     string(rec.Status),
		Progress: ExportProgress{
			ExportID:     rec.ID,
			Percentage:   rec.Percent,
			Phase:        rec.Phase,
			Message:      rec.Message,
			ErrorMessage: rec.ErrorMessage,
			UpdatedAt:    formatTime(rec.UpdatedAt),
		},
		ErrorMessage:     rec.ErrorMessage,
		ClipCount:        rec.ClipCount,
		ExpectedDuration: rec.ExpectedDuration,
		OutputDuration:   rec.OutputDuration,
		OutputBytes:      rec.OutputBytes,
		CreatedAt:        formatTime(rec.CreatedAt),
		UpdatedAt:        formatTime(rec.UpdatedAt),
	}
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckStatus {
	out := make([]CheckStatus, 0, len(results))
	for _, r := range results {
		out = append(out, CheckStatus{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
