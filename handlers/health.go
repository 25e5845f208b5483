package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"medialens/config"
)

// HealthHandler reports liveness and which backends are configured.
type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// Register mounts the health endpoints on the router.
func (h *HealthHandler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.handle).Methods(http.MethodGet)
	r.HandleFunc("/api/media/health", h.handle).Methods(http.MethodGet)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":         true,
		"backend":    string(h.cfg.ActiveBackend()),
		"jellyfin":   h.cfg.JellyfinConfigured(),
		"plex":       h.cfg.PlexConfigured(),
		"tautulli":   h.cfg.TautulliConfigured(),
		"tautulliDb": h.cfg.TautulliDBConfigured(),
	})
}
