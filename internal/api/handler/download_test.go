package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/tikgrab/internal/domain"
	"github.com/iconidentify/tikgrab/internal/service"
)

func newTestDownloadHandler(t *testing.T) *DownloadHandler {
	t.Helper()
	post := &domain.Post{ID: "7300000000000000001", Play: "https://cdn.example/sd.mp4"}
	media := newTestMediaService(t, post, nil)
	jobs := service.NewJobService(media, 2, nil)
	return NewDownloadHandler(jobs, discardLogger())
}

func TestDownloadHandler_Submit(t *testing.T) {
	h := newTestDownloadHandler(t)

	body := strings.NewReader(`{"link":"` + testLink + `","hd":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/downloads", body)
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	var resp SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID == "" {
		t.Error("response must carry a job ID")
	}
	if !strings.HasPrefix(resp.JobID, "job_") {
		t.Errorf("JobID = %q, want job_ prefix", resp.JobID)
	}
}

func TestDownloadHandler_Submit_MissingLink(t *testing.T) {
	h := newTestDownloadHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/downloads", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDownloadHandler_Get_SubmittedJob(t *testing.T) {
	post := &domain.Post{ID: "1", Play: "https://cdn.example/sd.mp4"}
	media := newTestMediaService(t, post, nil)
	jobs := service.NewJobService(media, 2, nil)
	h := NewDownloadHandler(jobs, discardLogger())

	job := jobs.Submit(testLink, false)

	// Poll until the background job settles.
	deadline := time.After(5 * time.Second)
	for {
		got, err := jobs.Get(job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Done() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never finished")
		case <-time.After(5 * time.Millisecond):
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/downloads/"+string(job.ID), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("jobID", string(job.ID))
	req = req.WithContext(withRouteContext(req.Context(), rctx))
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp JobResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != string(domain.JobStatusCompleted) {
		t.Errorf("status = %q (error %q), want completed", resp.Status, resp.Error)
	}
}

func TestDownloadHandler_Get_NotFound(t *testing.T) {
	h := newTestDownloadHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/downloads/job_missing", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("jobID", "job_missing")
	req = req.WithContext(withRouteContext(req.Context(), rctx))
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadHandler_List(t *testing.T) {
	post := &domain.Post{ID: "1", Play: "https://cdn.example/sd.mp4"}
	media := newTestMediaService(t, post, nil)
	jobs := service.NewJobService(media, 2, nil)
	h := NewDownloadHandler(jobs, discardLogger())

	jobs.Submit(testLink, false)
	jobs.Submit(testLink, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/downloads", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp ListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Errorf("Total = %d, want 2", resp.Total)
	}
}
