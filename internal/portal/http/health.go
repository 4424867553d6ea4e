package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store"
	"github.com/aussiebroadwan/dentaldesk/pkg/httpx"
)

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Storage string `json:"storage"`
	Session string `json:"session"`
}

// LivezHandler always answers 200 while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler reports 503 until token storage answers and the session has
// been restored.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.KV,
	session *service.SessionStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Storage: "ok",
			Session: session.Snapshot().State.String(),
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Storage = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if session.Snapshot().IsLoading() {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
