// Package server wires the administrative API routes.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/navikt/inquiry-migrator/internal/handlers"
	"github.com/navikt/inquiry-migrator/internal/middleware"
)

// NewRouter constructs a ServeMux with the migrator API routes registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health and metrics
	mux.HandleFunc("GET /healthz", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Task control
	mux.HandleFunc("GET /api/v1/tasks", h.ListTasks)
	mux.HandleFunc("POST /api/v1/tasks/{name}/start", h.StartTask)
	mux.HandleFunc("POST /api/v1/tasks/{name}/stop", h.StopTask)
	mux.HandleFunc("POST /api/v1/tasks/{name}/reset", h.ResetTask)

	// Introspection
	mux.HandleFunc("POST /api/v1/introspect/dry-run", h.DryRun)
	mux.HandleFunc("POST /api/v1/introspect/force-sync", h.ForceSync)
	mux.HandleFunc("POST /api/v1/introspect/force-sync-user", h.ForceSyncUser)
	mux.HandleFunc("GET /api/v1/introspect/watermark", h.GetWatermark)
	mux.HandleFunc("POST /api/v1/introspect/watermark", h.SetWatermark)
	mux.HandleFunc("GET /api/v1/introspect/changelog", h.ChangeLogInfo)
	mux.HandleFunc("GET /api/v1/introspect/changelog/{seq}", h.ChangeLogRecord)

	return middleware.RequestID(mux)
}
