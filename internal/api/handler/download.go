package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/tikgrab/internal/domain"
	"github.com/iconidentify/tikgrab/internal/service"
)

// DownloadHandler handles download job HTTP requests.
type DownloadHandler struct {
	jobs   *service.JobService
	logger *slog.Logger
}

// NewDownloadHandler creates a new download handler.
func NewDownloadHandler(jobs *service.JobService, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		jobs:   jobs,
		logger: logger,
	}
}

// SubmitRequest is the JSON request body for a download submission.
type SubmitRequest struct {
	Link string `json:"link"`
	HD   bool   `json:"hd,omitempty"`
}

// SubmitResponse is the JSON response after submission.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobResponse represents a job in list/get responses.
type JobResponse struct {
	JobID      string                 `json:"job_id"`
	Link       string                 `json:"link"`
	HD         bool                   `json:"hd"`
	Status     string                 `json:"status"`
	Result     *domain.DownloadResult `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
	CreatedAt  string                 `json:"created_at"`
	FinishedAt string                 `json:"finished_at,omitempty"`
}

// ListResponse contains all known jobs.
type ListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Total int           `json:"total"`
}

// Submit handles POST /api/v1/downloads
func (h *DownloadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Link == "" {
		h.writeError(w, http.StatusBadRequest, "missing link")
		return
	}

	job := h.jobs.Submit(req.Link, req.HD)
	h.writeJSON(w, http.StatusAccepted, SubmitResponse{
		JobID:  string(job.ID),
		Status: string(job.Status),
	})
}

// Get handles GET /api/v1/downloads/{jobID}
func (h *DownloadHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.writeError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	job, err := h.jobs.Get(domain.JobID(jobID))
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			h.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("get job failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	h.writeJSON(w, http.StatusOK, toJobResponse(job))
}

// List handles GET /api/v1/downloads
func (h *DownloadHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	resp := ListResponse{
		Jobs:  make([]JobResponse, 0, len(jobs)),
		Total: len(jobs),
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(job))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func toJobResponse(job domain.Job) JobResponse {
	resp := JobResponse{
		JobID:     string(job.ID),
		Link:      job.Link,
		HD:        job.HD,
		Status:    string(job.Status),
		Result:    job.Result,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	}
	if job.FinishedAt != nil {
		resp.FinishedAt = job.FinishedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *DownloadHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *DownloadHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
