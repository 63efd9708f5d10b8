package backfill

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryJobs keeps jobs in process memory. Jobs are lost on restart.
type MemoryJobs struct {
	mu   sync.Mutex
	jobs map[string]*Job
	seq  []string
}

// NewMemoryJobs creates an empty store.
func NewMemoryJobs() *MemoryJobs {
	return &MemoryJobs{jobs: make(map[string]*Job)}
}

func (m *MemoryJobs) CreateJob(_ context.Context, job *Job) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := job.Copy()
	if stored.JobID == "" {
		stored.JobID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	m.jobs[stored.JobID] = stored
	m.seq = append(m.seq, stored.JobID)
	return stored.Copy(), nil
}

func (m *MemoryJobs) GetJob(_ context.Context, jobID string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", jobID, ErrJobNotFound)
	}
	return job.Copy(), nil
}

func (m *MemoryJobs) ListRecentJobs(_ context.Context, limit int) ([]*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Job, 0, len(m.seq))
	for i := len(m.seq) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.jobs[m.seq[i]].Copy())
	}
	return out, nil
}

func (m *MemoryJobs) GetActiveJob(_ context.Context) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var running []*Job
	for _, job := range m.jobs {
		if job.Status == JobStatusRunning {
			running = append(running, job)
		}
	}
	if len(running) == 0 {
		return nil, nil
	}
	sort.Slice(running, func(i, j int) bool {
		return running[i].StartedAt.Time.After(running[j].StartedAt.Time)
	})
	return running[0].Copy(), nil
}

func (m *MemoryJobs) MarkNextJobRunning(_ context.Context) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.seq {
		job := m.jobs[id]
		if job.Status != JobStatusQueued {
			continue
		}
		now := time.Now().UTC()
		job.Status = JobStatusRunning
		job.StatusMessage = sql.NullString{String: "Starting job...", Valid: true}
		if !job.StartedAt.Valid {
			job.StartedAt = sql.NullTime{Time: now, Valid: true}
		}
		job.UpdatedAt = now
		return job.Copy(), nil
	}
	return nil, nil
}

func (m *MemoryJobs) UpdateStatus(_ context.Context, jobID string, status JobStatus, message string, lastErr error) error {
	return m.update(jobID, func(job *Job) {
		job.Status = status
		job.StatusMessage = sql.NullString{String: message, Valid: true}
		job.LastError = sql.NullString{}
		if lastErr != nil {
			job.LastError = sql.NullString{String: lastErr.Error(), Valid: true}
		}
		switch status {
		case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
			job.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		}
	})
}

func (m *MemoryJobs) UpdateProgress(_ context.Context, jobID string, current, total int, message string) error {
	return m.update(jobID, func(job *Job) {
		job.ProgressCurrent, job.ProgressTotal = current, total
		job.StatusMessage = sql.NullString{String: message, Valid: true}
	})
}

func (m *MemoryJobs) RecordOutcome(_ context.Context, jobID string, succeeded, failed int) error {
	return m.update(jobID, func(job *Job) {
		job.Succeeded, job.Failed = succeeded, failed
	})
}

func (m *MemoryJobs) ResetStuckJobs(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.Status == JobStatusRunning {
			job.Status = JobStatusQueued
			job.StatusMessage = sql.NullString{String: "Reset after service restart", Valid: true}
		}
	}
	return nil
}

func (m *MemoryJobs) update(jobID string, fn func(*Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("%s: %w", jobID, ErrJobNotFound)
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}
