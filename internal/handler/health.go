package handler

import (
	"net/http"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/config"
	"github.com/jmoiron/sqlx"
)

type HealthHandler struct {
	db      *sqlx.DB
	version string
	env     string
}

func NewHealthHandler(db *sqlx.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{db: db, version: cfg.AppVersion, env: cfg.AppEnv}
}

// Health reports liveness plus database reachability.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if h.db != nil {
		err := h.db.PingContext(r.Context())
		if err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]string{
		"status":      status,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"version":     h.version,
		"environment": h.env,
	})
}
