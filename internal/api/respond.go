package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"cutline/internal/mediaimport"
	"cutline/internal/prerender"
	"cutline/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeFailure maps engine errors onto HTTP status codes.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	writeError(w, status, err.Error(), code)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, prerender.ErrNoClips),
		errors.Is(err, mediaimport.ErrUnsupportedFormat),
		errors.Is(err, mediaimport.ErrNothingImported):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR"
	case errors.Is(err, services.ErrBusy):
		return http.StatusConflict, "BUSY"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrCancelled):
		return http.StatusConflict, "CANCELLED"
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable, "CONFIGURATION_ERROR"
	case errors.Is(err, services.ErrExternalTool):
		return http.StatusBadGateway, "EXTERNAL_TOOL_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 8<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "BAD_REQUEST")
		return false
	}
	return true
}

func unavailable(w http.ResponseWriter, component string) {
	writeError(w, http.StatusServiceUnavailable, component+" is not configured", "UNAVAILABLE")
}
