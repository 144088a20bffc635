package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/taskboard/taskboard-go/internal/config"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler serves the detailed health report.
type StatusHandler struct {
	store   Pinger
	build   config.BuildInfo
	public  bool
	started time.Time
	timeout time.Duration
}

// NewStatusHandler creates a new StatusHandler. The report is only served
// when public is true.
func NewStatusHandler(store Pinger, build config.BuildInfo, public bool) *StatusHandler {
	return &StatusHandler{
		store:   store,
		build:   build,
		public:  public,
		started: time.Now(),
		timeout: 2 * time.Second,
	}
}

type statusResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Build     config.BuildInfo  `json:"build"`
	Server    serverStatus      `json:"server"`
	Services  map[string]string `json:"services"`
}

type serverStatus struct {
	Uptime string `json:"uptime"`
	Status string `json:"status"`
}

// HandleStatus handles GET /api/status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !h.public {
		writeJSON(w, http.StatusForbidden, errorResponse("health check is not public"))
		return
	}

	resp := statusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Build:     h.build,
		Server: serverStatus{
			Uptime: time.Since(h.started).Round(time.Second).String(),
			Status: "running",
		},
		Services: map[string]string{"database": "connected"},
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "error"
		resp.Services["database"] = "disconnected"
		resp.Services["error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
