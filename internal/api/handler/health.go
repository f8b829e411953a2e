package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/iconidentify/tikgrab/internal/downloader"
)

var startTime = time.Now()

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	downloadDir string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(downloadDir string) *HealthHandler {
	return &HealthHandler{
		downloadDir: downloadDir,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	UptimeSeconds int64  `json:"uptime_seconds,omitempty"`
	FreeBytes     int64  `json:"free_bytes,omitempty"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe. Reports the free space on
// the download filesystem so operators can see it without shell access.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		FreeBytes:     downloader.FreeSpace(h.downloadDir),
	})
}
