package domain

import "time"

// JobID identifies a download job submitted through the API.
type JobID string

func (id JobID) String() string { return string(id) }

// JobStatus is the lifecycle state of a download job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job tracks one asynchronous download request from submission to outcome.
type Job struct {
	ID         JobID           `json:"id"`
	Link       string          `json:"link"`
	HD         bool            `json:"hd"`
	Status     JobStatus       `json:"status"`
	Result     *DownloadResult `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// MarkRunning transitions the job to running.
func (j *Job) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// MarkCompleted records a successful outcome.
func (j *Job) MarkCompleted(result *DownloadResult) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Result = result
	j.FinishedAt = &now
}

// MarkFailed records a failure.
func (j *Job) MarkFailed(msg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.Error = msg
	j.FinishedAt = &now
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
