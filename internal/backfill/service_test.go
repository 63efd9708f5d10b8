package backfill

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/puckline/internal/ingest/nhlapi/nhlapitest"
)

func newTestService(t *testing.T, h *harness) (*Service, *MemoryJobs) {
	t.Helper()
	jobs := NewMemoryJobs()
	svc := NewService(jobs, h.runner, nil)
	svc.pollInterval = 10 * time.Millisecond
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc, jobs
}

func waitForStatus(t *testing.T, svc *Service, jobID string, want JobStatus) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		var err error
		job, err = svc.GetJob(context.Background(), jobID)
		return err == nil && job.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestServiceRunsQueuedJob(t *testing.T) {
	s := newSite()
	s.addGame("2023020001")
	s.addGame("2023020002")
	s.addAPI("2023020001", nhlapitest.SampleFeed())
	h := newHarness(t, s, true, false)
	svc, _ := newTestService(t, h)

	job, err := svc.Enqueue(context.Background(), Request{GameIDs: []string{"2023020001", "2023020002"}})
	require.NoError(t, err)
	assert.Equal(t, JobStatusQueued, job.Status)
	assert.Equal(t, 2, job.ProgressTotal)
	assert.Equal(t, []string{"api", "espn"}, []string(job.Providers))

	svc.Start()
	done := waitForStatus(t, svc, job.JobID, JobStatusCompleted)
	assert.Equal(t, 2, done.Succeeded)
	assert.Equal(t, 0, done.Failed)
	assert.Equal(t, 2, done.ProgressCurrent)
	assert.True(t, done.CompletedAt.Valid)
	assert.Equal(t, 2, h.sink.count())
}

func TestServiceFailedJob(t *testing.T) {
	s := newSite()
	h := newHarness(t, s, false, false)
	svc, _ := newTestService(t, h)
	svc.Start()

	job, err := svc.Enqueue(context.Background(), Request{GameIDs: []string{"2023020001"}})
	require.NoError(t, err)

	failed := waitForStatus(t, svc, job.JobID, JobStatusFailed)
	assert.Equal(t, 1, failed.Failed)
	assert.True(t, failed.LastError.Valid)
}

func TestServiceEnqueueRange(t *testing.T) {
	svc, _ := newTestService(t, newHarness(t, newSite(), false, false))

	job, err := svc.Enqueue(context.Background(), Request{Season: 2023, GameType: 3, First: 111, Last: 112, Live: true})
	require.NoError(t, err)
	assert.Equal(t, JobTypeRange, job.JobType)
	assert.Equal(t, []string{"2023030111", "2023030112"}, []string(job.GameIDs))
	assert.True(t, job.Live)
}

func TestServiceEnqueueRejects(t *testing.T) {
	svc, _ := newTestService(t, newHarness(t, newSite(), false, false))
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, Request{})
	assert.Error(t, err)

	_, err = svc.Enqueue(ctx, Request{GameIDs: []string{"20230200"}})
	assert.Error(t, err, "malformed id")

	_, err = svc.Enqueue(ctx, Request{GameIDs: []string{"2023020001"}, Providers: []Provider{"statsapi"}})
	assert.Error(t, err)
}

func TestServiceCancelQueuedJob(t *testing.T) {
	svc, _ := newTestService(t, newHarness(t, newSite(), false, false))
	ctx := context.Background()

	job, err := svc.Enqueue(ctx, Request{GameIDs: []string{"2023020001"}})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, job.JobID)
	assert.ErrorIs(t, err, ErrJobFinished)

	_, err = svc.Cancel(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestServiceListJobs(t *testing.T) {
	svc, _ := newTestService(t, newHarness(t, newSite(), false, false))
	ctx := context.Background()

	first, err := svc.Enqueue(ctx, Request{GameIDs: []string{"2023020001"}})
	require.NoError(t, err)
	second, err := svc.Enqueue(ctx, Request{GameIDs: []string{"2023020002"}})
	require.NoError(t, err)

	jobs, err := svc.ListJobs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.JobID, jobs[0].JobID)
	assert.Equal(t, first.JobID, jobs[1].JobID)

	status, err := svc.GetStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, status.ActiveJob)
	assert.Len(t, status.History, 2)
}

func TestServiceDefaultProviders(t *testing.T) {
	svc, _ := newTestService(t, newHarness(t, newSite(), false, false))
	svc.SetDefaultProviders([]Provider{ProviderESPN})

	job, err := svc.Enqueue(context.Background(), Request{GameIDs: []string{"2023020001"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"espn"}, []string(job.Providers))

	job, err = svc.Enqueue(context.Background(), Request{GameIDs: []string{"2023020001"}, Providers: []Provider{"api"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"api"}, []string(job.Providers))
}

func TestParseProviders(t *testing.T) {
	ps, err := ParseProviders(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultProviders, ps)

	ps, err = ParseProviders([]Provider{" ESPN", "api", "espn"})
	require.NoError(t, err)
	assert.Equal(t, []Provider{ProviderESPN, ProviderAPI}, ps)
}
