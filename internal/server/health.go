package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func registerHealthRoutes(r chi.Router, version, commit, buildDate string, readiness func() error) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if readiness != nil {
			if err := readiness(); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"reason": err.Error(),
				})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"version":   version,
			"commit":    commit,
			"buildDate": buildDate,
		})
	})
}
