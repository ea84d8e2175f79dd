package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/vigil/internal/monitor"
)

// Monitor is the running monitor as seen by the API.
type Monitor interface {
	Status() monitor.Status
	SetEnabled(enabled bool) error
}

// MonitorHandler serves /api/status and /api/monitor.
type MonitorHandler struct {
	monitor Monitor
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(m Monitor) *MonitorHandler {
	return &MonitorHandler{monitor: m}
}

type monitorRequest struct {
	Enabled *bool `json:"enabled"`
}

type monitorResponse struct {
	Enabled  bool `json:"enabled"`
	Alarming bool `json:"alarming"`
}

// Status handles GET /api/status and returns the full snapshot.
func (h *MonitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.monitor.Status())
}

// ServeHTTP handles GET and PUT /api/monitor.
func (h *MonitorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MonitorHandler) get(w http.ResponseWriter, r *http.Request) {
	status := h.monitor.Status()
	writeJSON(w, http.StatusOK, monitorResponse{Enabled: status.Enabled, Alarming: status.Alarming})
}

// update pauses or resumes monitoring.
func (h *MonitorHandler) update(w http.ResponseWriter, r *http.Request) {
	var req monitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	if err := h.monitor.SetEnabled(*req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update monitor")
		return
	}

	h.get(w, r)
}
