package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var playbackTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
}

// PlaybackContentType returns the content type served for path.
func PlaybackContentType(path string) string {
	if ct, ok := playbackTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// playback streams a local media file with byte-range support.
func (h *handler) playback(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
		return
	}
	if !filepath.IsAbs(path) {
		writeError(w, http.StatusBadRequest, "path must be absolute", "BAD_REQUEST")
		return
	}
	path = filepath.Clean(path)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}
		writeError(w, http.StatusForbidden, "file not readable", "FORBIDDEN")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
		return
	}

	w.Header().Set("Content-Type", PlaybackContentType(path))
	w.Header().Set("Accept-Ranges", "bytes")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
