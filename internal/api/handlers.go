package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cutline/internal/devices"
	"cutline/internal/export"
	"cutline/internal/history"
	"cutline/internal/logs"
	"cutline/internal/preflight"
	"cutline/internal/render"
)

const (
	defaultHistoryLimit = 20
	defaultLogLines     = 200
)

type handler struct {
	cfg ServerConfig
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"uptimeSeconds": int64(time.Since(h.cfg.StartTime).Seconds()),
	})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	resp := Status{
		Dependencies:  []DependencyStatus{},
		Checks:        []CheckStatus{},
		ActiveExports: []ExportProgress{},
		Latest:        FromProgress(export.IdleProgress()),
	}
	if cfg := h.cfg.Config; cfg != nil {
		resp.Dependencies = FromDependencies(preflight.CheckSystemDeps(r.Context(), cfg))
		resp.Checks = FromChecks(preflight.RunAll(r.Context(), cfg, ""))
	}
	if h.cfg.Exporter != nil {
		resp.ActiveExports = FromProgressSlice(h.cfg.Exporter.Active())
		resp.Latest = FromProgress(h.cfg.Exporter.Latest())
	}
	if h.cfg.Store != nil {
		resp.HistoryPath = h.cfg.Store.Path()
	}
	writeJSON(w, http.StatusOK, resp)
}

// startExport handles export_timeline and, when fast, export_timeline_fast.
func (h *handler) startExport(fast bool) http.HandlerFunc {
	mode := render.ModeSequential
	if fast {
		mode = render.ModeSinglePass
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.Exporter == nil {
			unavailable(w, "exporter")
			return
		}
		var req ExportRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Wait {
			result, err := h.cfg.Exporter.Export(r.Context(), req.Clips, req.Config, mode)
			if err != nil {
				writeFailure(w, err)
				return
			}
			writeJSON(w, http.StatusOK, FromResult(result))
			return
		}
		handle, err := h.cfg.Exporter.Start(r.Context(), req.Clips, req.Config, mode)
		if err != nil {
			writeFailure(w, err)
			return
		}
		w.Header().Set("Location", "/api/exports/"+handle.ID)
		writeJSON(w, http.StatusAccepted, FromProgress(handle.Progress()))
	}
}

// latestProgress is get_export_progress: the most recent export, or idle.
func (h *handler) latestProgress(w http.ResponseWriter, _ *http.Request) {
	progress := export.IdleProgress()
	if h.cfg.Exporter != nil {
		progress = h.cfg.Exporter.Latest()
	}
	writeJSON(w, http.StatusOK, FromProgress(progress))
}

func (h *handler) activeExports(w http.ResponseWriter, _ *http.Request) {
	resp := ActiveExportsResponse{Exports: []ExportProgress{}}
	if h.cfg.Exporter != nil {
		resp.Exports = FromProgressSlice(h.cfg.Exporter.Active())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) listExports(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Store == nil {
		unavailable(w, "history")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", "BAD_REQUEST")
			return
		}
		limit = parsed
	}
	records, err := h.cfg.Store.ListExports(r.Context(), limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	resp := ExportListResponse{Exports: make([]ExportRecord, 0, len(records))}
	for _, rec := range records {
		resp.Exports = append(resp.Exports, FromHistory(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// exportLog returns the tail of an export's log, or everything after
// ?offset= when the caller is polling.
func (h *handler) exportLog(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Config == nil {
		unavailable(w, "configuration")
		return
	}
	id := chi.URLParam(r, "id")
	path, err := logs.ExportPath(h.cfg.Config.Paths.LogDir, id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}
	query := r.URL.Query()
	var (
		lines  []string
		offset int64
	)
	if raw := query.Get("offset"); raw != "" {
		start, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || start < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer", "BAD_REQUEST")
			return
		}
		lines, offset, err = logs.ReadFrom(path, start)
	} else {
		count := defaultLogLines
		if raw := query.Get("lines"); raw != "" {
			parsed, perr := strconv.Atoi(raw)
			if perr != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "lines must be a non-negative integer", "BAD_REQUEST")
				return
			}
			count = parsed
		}
		lines, offset, err = logs.Last(path, count)
	}
	if err != nil {
		writeFailure(w, err)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, ExportLogResponse{ExportID: id, Lines: lines, Offset: offset})
}

// getExport merges the history record with live progress when the export
// belongs to this process.
func (h *handler) getExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var rec ExportRecord
	if h.cfg.Store != nil {
		stored, err := h.cfg.Store.GetExport(r.Context(), id)
		switch {
		case err == nil:
			rec = FromHistory(stored)
		case !errors.Is(err, history.ErrNotFound):
			writeFailure(w, err)
			return
		}
	}
	if h.cfg.Exporter != nil {
		if handle, ok := h.cfg.Exporter.Handle(id); ok {
			progress := handle.Progress()
			rec.ID = handle.ID
			rec.Mode = string(handle.Mode)
			rec.OutputPath = handle.OutputPath
			rec.Progress = FromProgress(progress)
			if rec.Status == "" {
				rec.Status = liveStatus(progress)
			}
		}
	}
	if rec.ID == "" {
		writeError(w, http.StatusNotFound, "export "+id+" not found", "NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) cancelExport(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Exporter == nil {
		unavailable(w, "exporter")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.cfg.Exporter.Cancel(id); err != nil {
		writeFailure(w, err)
		return
	}
	progress, _ := h.cfg.Exporter.Progress(id)
	writeJSON(w, http.StatusAccepted, FromProgress(progress))
}

func (h *handler) prerender(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Renderer == nil {
		unavailable(w, "prerender")
		return
	}
	var req PrerenderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	output, err := h.cfg.Renderer.Render(r.Context(), req.SegmentID, req.Clips, req.OutputPath)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PathResponse{Path: output})
}

func (h *handler) cacheDir(w http.ResponseWriter, _ *http.Request) {
	if h.cfg.Renderer == nil {
		unavailable(w, "prerender")
		return
	}
	dir, err := h.cfg.Renderer.CacheDir()
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PathResponse{Path: dir})
}

func (h *handler) clearCache(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Renderer == nil {
		unavailable(w, "prerender")
		return
	}
	result, err := h.cfg.Renderer.Clear(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CacheClearResponse{Files: result.Files, Bytes: result.Bytes})
}

func (h *handler) importMedia(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Importer == nil {
		unavailable(w, "import")
		return
	}
	var req ImportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Paths) == 0 {
		writeError(w, http.StatusBadRequest, "paths is required", "BAD_REQUEST")
		return
	}
	items, err := h.cfg.Importer.ImportMany(r.Context(), req.Paths)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MediaListResponse{Items: items})
}

func (h *handler) listDevices(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Devices == nil {
		unavailable(w, "devices")
		return
	}
	devs, err := h.cfg.Devices.List(r.Context())
	if errors.Is(err, devices.ErrUnsupported) {
		writeError(w, http.StatusNotImplemented, err.Error(), "UNSUPPORTED")
		return
	}
	if err != nil {
		writeFailure(w, err)
		return
	}
	if devs == nil {
		devs = []devices.Device{}
	}
	writeJSON(w, http.StatusOK, DevicesResponse{Devices: devs})
}

func liveStatus(p export.Progress) string {
	switch p.Phase {
	case export.PhaseComplete:
		return string(history.StatusComplete)
	case export.PhaseError:
		return string(history.StatusFailed)
	default:
		return string(history.StatusRunning)
	}
}
