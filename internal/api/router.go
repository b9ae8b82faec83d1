package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP routes.
func NewRouter(cfg ServerConfig) *chi.Mux {
	h := &handler{cfg: cfg}
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(cfg.Logger))

	origins := []string{"*"}
	if cfg.Config != nil && len(cfg.Config.API.AllowedOrigins) > 0 {
		origins = cfg.Config.API.AllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Range"},
		ExposedHeaders: []string{"Content-Length", "Content-Range", "Accept-Ranges", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Get("/playback", h.playback)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)

		r.Route("/exports", func(r chi.Router) {
			r.Post("/", h.startExport(false))
			r.Post("/fast", h.startExport(true))
			r.Get("/", h.listExports)
			r.Get("/progress", h.latestProgress)
			r.Get("/active", h.activeExports)
			r.Get("/{id}", h.getExport)
			r.Get("/{id}/log", h.exportLog)
			r.Post("/{id}/cancel", h.cancelExport)
		})

		r.Post("/prerender", h.prerender)
		r.Get("/prerender/cache", h.cacheDir)
		r.Delete("/prerender/cache", h.clearCache)

		r.Post("/media/import", h.importMedia)
		r.Get("/devices", h.listDevices)
	})
	return r
}
