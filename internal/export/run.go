package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cutline/internal/fileutil"
	"cutline/internal/history"
	"cutline/internal/logging"
	"cutline/internal/logs"
	"cutline/internal/planner"
	"cutline/internal/preflight"
	"cutline/internal/render"
	"cutline/internal/services"
	"cutline/internal/staging"
	"cutline/internal/timeline"
)

func (e *Exporter) run(ctx context.Context, h *Handle, clips []timeline.Clip, cfg timeline.ExportConfig) (result Result, err error) {
	started := time.Now()
	logger, closeLog := e.exportLogger(h.ID)
	defer closeLog()
	logger = logging.WithContext(ctx, logger)

	normalized := timeline.NormalizeWithTolerance(clips, e.cfg.Export.GapTolerance)
	result = Result{
		ExportID:         h.ID,
		OutputPath:       cfg.OutputPath,
		Mode:             h.Mode,
		ExpectedDuration: normalized.ExpectedDuration,
	}
	e.recordStart(ctx, logger, h, len(clips), normalized.ExpectedDuration)

	var ws *staging.Workspace
	defer func() {
		if ws != nil {
			if cleanupErr := ws.Cleanup(); cleanupErr != nil {
				logging.WarnWithContext(logger, "failed to remove export workspace", "workspace_cleanup_failed",
					logging.String("path", ws.Dir),
					logging.Error(cleanupErr),
					logging.String(logging.FieldErrorHint, "remove the directory manually or run cutline cache prune"),
					logging.String(logging.FieldImpact, "temporary files left on disk"),
				)
			}
		}
		if err != nil {
			err = e.classify(ctx, err)
			h.tracker.fail(err.Error())
			logging.ErrorWithContext(logger, "export failed", "export_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, failureHint(err)),
			)
		}
		result.Elapsed = time.Since(started)
		e.recordFinish(logger, h, result, err)
	}()

	h.tracker.update(PhasePreparing, 0, "Preparing export", "")
	if err := e.cfg.EnsureDirectories(); err != nil {
		return result, services.Wrap(services.ErrConfiguration, string(PhasePreparing), "create directories", "", err)
	}
	if !e.skipPreflight {
		if failed := preflight.Failed(preflight.RunAll(ctx, e.cfg, cfg.OutputPath)); len(failed) > 0 {
			details := make([]string, len(failed))
			for i, f := range failed {
				details[i] = f.Name + ": " + f.Detail
			}
			return result, services.Wrap(services.ErrConfiguration, string(PhasePreparing), "preflight", strings.Join(details, "; "), nil)
		}
	}

	// validating
	h.tracker.update(PhaseValidating, bandValidatingStart, fmt.Sprintf("Validating %d clips", len(normalized.Clips)), "")
	validations, err := e.validator.ValidateAll(ctx, normalized.Clips)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, string(PhaseValidating), "", "", err)
	}
	target, err := planner.ResolveTarget(cfg, validations, e.planner.DefaultFPS())
	if err != nil {
		return result, services.Wrap(services.ErrValidation, string(PhaseValidating), "resolve target", "", err)
	}
	h.tracker.update(PhaseValidating, bandValidatingEnd, "Clips validated", "")
	logger.Info("timeline validated",
		logging.Int(logging.FieldClipCount, len(normalized.Clips)),
		logging.Int("gap_count", len(normalized.Gaps)),
		logging.Float64("expected_duration", normalized.ExpectedDuration),
		logging.String("target", target.String()),
		logging.String("mode", string(h.Mode)),
	)

	ws, err = staging.NewWorkspace(e.cfg.Paths.TempDir, staging.PrefixExport, h.ID)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, string(PhaseProcessingClips), "create workspace", "", err)
	}
	staged := ws.Path("output" + outputExt(cfg.OutputPath))

	strategy, err := render.Select(h.Mode, e.planner, e.cfg.Export.SinglePassGaps, logger)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, string(PhasePreparing), "select strategy", "", err)
	}
	plan, err := strategy.Build(ctx, render.Input{
		Timeline:    normalized,
		Validations: validations,
		Config:      cfg,
		Target:      target,
		WorkDir:     ws.Dir,
		Output:      staged,
	})
	if err != nil {
		return result, services.Wrap(services.ErrValidation, string(PhaseProcessingClips), "build render plan", "", err)
	}
	result.Mode = plan.Mode

	phase := PhaseProcessingClips
	warnings, err := render.Execute(ctx, e.runner, plan, render.Hooks{
		SegmentStarted: func(index, total int, seg render.Segment) {
			msg := fmt.Sprintf("Processing segment %d of %d", index+1, total)
			h.tracker.update(PhaseProcessingClips, processingPercent(index, total), msg, seg.Label)
		},
		Assembling: func(p render.Plan) {
			if p.Mode == render.ModeSinglePass {
				msg := fmt.Sprintf("Rendering %d clips in a single pass", len(normalized.Clips))
				h.tracker.update(PhaseProcessingClips, bandProcessingStart, msg, "")
				return
			}
			phase = PhaseConcatenating
			h.tracker.update(PhaseConcatenating, bandProcessingEnd, "Concatenating segments", "")
		},
	}, logger)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, string(phase), "", "", err)
	}
	h.tracker.update(PhaseConcatenating, bandConcatenatingEnd, "Segments joined", "")

	// finalizing
	h.tracker.update(PhaseFinalizing, bandFinalizing, "Publishing output", "")
	if err := fileutil.MoveFile(staged, cfg.OutputPath); err != nil {
		return result, services.Wrap(services.ErrTransient, string(PhaseFinalizing), "publish output", cfg.OutputPath, err)
	}

	h.tracker.update(PhaseValidatingOutput, bandValidatingOutput, "Validating output", "")
	report, err := e.validator.ValidateOutput(ctx, cfg.OutputPath, normalized.ExpectedDuration)
	result.Report = report
	if err != nil {
		if removeErr := os.Remove(cfg.OutputPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn("failed to remove rejected output", logging.String("path", cfg.OutputPath), logging.Error(removeErr))
		}
		return result, services.Wrap(services.ErrExternalTool, string(PhaseValidatingOutput), "", "", err)
	}
	result.Warnings = append(result.Warnings, report.Warnings...)

	h.tracker.update(PhaseComplete, bandComplete, "Export complete", "")
	logger.Info("export complete",
		logging.String(logging.FieldEventType, "export_complete"),
		logging.String("output", cfg.OutputPath),
		logging.Int64("size_bytes", report.SizeBytes),
		logging.Float64("duration", report.Duration),
		logging.Int("warning_count", len(result.Warnings)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// classify turns cancellation into ErrCancelled so callers see one message.
func (e *Exporter) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return services.ErrCancelled
	}
	return err
}

// failureHint names the operator's next step for a failed export.
func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrCancelled):
		return "export was cancelled; start it again when ready"
	case errors.Is(err, services.ErrBusy):
		return "another export is writing this output; wait for it or pick another path"
	case errors.Is(err, services.ErrValidation):
		return "fix the clip named in the error and retry"
	case errors.Is(err, services.ErrConfiguration):
		return "run cutline status to check tools and directories"
	case errors.Is(err, services.ErrExternalTool):
		return "ffmpeg diagnostics are in the export log"
	default:
		return "check the export log for details"
	}
}

func (e *Exporter) exportLogger(id string) (*slog.Logger, func()) {
	logger := e.logger.With(logging.String(logging.FieldExportID, id))
	if e.cfg == nil || strings.TrimSpace(e.cfg.Paths.LogDir) == "" {
		return logger, func() {}
	}
	path, err := logs.ExportPath(e.cfg.Paths.LogDir, id)
	if err != nil {
		return logger, func() {}
	}
	handler, closer, err := logging.OpenFileHandler(path, e.cfg.Logging.Level, e.cfg.Logging.Format)
	if err != nil {
		logger.Warn("per-export log unavailable", logging.String("path", path), logging.Error(err))
		return logger, func() {}
	}
	return logging.TeeLogger(logger, handler), func() { closeQuietly(closer) }
}

func (e *Exporter) recordStart(ctx context.Context, logger *slog.Logger, h *Handle, clipCount int, expected float64) {
	if e.store == nil {
		return
	}
	_, err := e.store.CreateExport(ctx, history.Export{
		ID:               h.ID,
		Mode:             string(h.Mode),
		OutputPath:       h.OutputPath,
		ClipCount:        clipCount,
		ExpectedDuration: expected,
	})
	if err != nil {
		logger.Warn("failed to record export start", logging.Error(err))
	}
}

func (e *Exporter) recordFinish(logger *slog.Logger, h *Handle, result Result, runErr error) {
	if e.store == nil {
		return
	}
	snap := h.Progress()
	outcome := history.Outcome{
		Status:         history.StatusComplete,
		Phase:          string(snap.Phase),
		Percent:        snap.Percentage,
		Message:        snap.Message,
		OutputDuration: result.Report.Duration,
		OutputBytes:    result.Report.SizeBytes,
	}
	if runErr != nil {
		outcome.Status = services.FailureStatus(runErr)
		outcome.ErrorMessage = runErr.Error()
	}
	if err := e.store.Finish(context.Background(), h.ID, outcome); err != nil {
		logger.Warn("failed to record export outcome", logging.Error(err))
	}
}

func outputExt(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return ".mp4"
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
