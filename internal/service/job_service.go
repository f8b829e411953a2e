package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/tikgrab/internal/domain"
)

// jobRetention is how long terminal jobs stay queryable after finishing.
const jobRetention = time.Hour

// JobService runs download jobs asynchronously. Submissions return
// immediately with a job ID; the download proceeds in the background,
// gated by a semaphore so at most maxConcurrent jobs run at once.
//
// Job state lives in memory only. Every accessor returns a snapshot copy
// taken under the service mutex, so callers never observe a job mid
// transition; finished jobs are pruned after jobRetention to keep the map
// bounded.
type JobService struct {
	media  *MediaService
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[domain.JobID]*domain.Job

	sem chan struct{}
}

// NewJobService creates a JobService with the given concurrency bound.
func NewJobService(media *MediaService, maxConcurrent int, logger *slog.Logger) *JobService {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		media:  media,
		logger: logger,
		jobs:   make(map[domain.JobID]*domain.Job),
		sem:    make(chan struct{}, maxConcurrent),
	}
}

// Submit registers a download job and starts it in the background. The
// returned Job is a snapshot of the submission state.
func (s *JobService) Submit(link string, hd bool) domain.Job {
	job := &domain.Job{
		ID:        domain.JobID("job_" + uuid.New().String()[:8]),
		Link:      link,
		HD:        hd,
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.pruneLocked(time.Now())
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	s.logger.Info("job submitted", "job_id", string(job.ID), "link", link)
	go s.run(job)
	return snapshot
}

func (s *JobService) run(job *domain.Job) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	s.mu.Lock()
	job.MarkRunning()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := s.media.Download(ctx, job.Link, DownloadOptions{HD: job.HD})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		job.MarkFailed(err.Error())
		s.logger.Warn("job failed", "job_id", string(job.ID), "error", err)
		return
	}
	job.MarkCompleted(result)
	s.logger.Info("job completed", "job_id", string(job.ID), "files", len(result.Media))
}

// Get returns a snapshot of the job with the given ID.
func (s *JobService) Get(id domain.JobID) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return *job, nil
}

// List returns snapshots of all known jobs, newest first.
func (s *JobService) List() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// pruneLocked drops terminal jobs past the retention window. Caller must
// hold s.mu.
func (s *JobService) pruneLocked(now time.Time) {
	for id, job := range s.jobs {
		if job.Done() && job.FinishedAt != nil && now.Sub(*job.FinishedAt) > jobRetention {
			delete(s.jobs, id)
		}
	}
}
