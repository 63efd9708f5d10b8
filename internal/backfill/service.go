package backfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fortuna/puckline/internal/pbp"
)

// ErrJobFinished is returned when cancelling a job that already ended.
var ErrJobFinished = errors.New("job already finished")

// Request represents a scrape invocation request.
type Request struct {
	GameIDs []string
	// Season, GameType, First and Last request a range of game numbers.
	Season    int
	GameType  int
	First     int
	Last      int
	Live      bool
	Providers []Provider
}

// DeriveType infers the job type based on populated fields.
func (r Request) DeriveType() (JobType, error) {
	if len(r.GameIDs) > 0 {
		return JobTypeGames, nil
	}
	if r.Season > 0 && r.First > 0 {
		return JobTypeRange, nil
	}
	return "", fmt.Errorf("unable to determine job type from request")
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo   JobStore
	runner *Runner

	historyLimit int
	pollInterval time.Duration
	concurrency  int
	providers    []Provider
	wake         chan struct{}

	mu      sync.Mutex
	running map[string]context.CancelFunc
	// pending holds cancels that arrived between claim and start.
	pending map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(repo JobStore, runner *Runner, logger *log.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = log.New(log.Writer(), "[backfill] ", log.LstdFlags)
	}

	return &Service{
		repo:         repo,
		runner:       runner,
		historyLimit: 10,
		pollInterval: 3 * time.Second,
		concurrency:  1,
		providers:    DefaultProviders,
		wake:         make(chan struct{}, 1),
		running:      make(map[string]context.CancelFunc),
		pending:      make(map[string]bool),
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// SetConcurrency sets how many games of one job are scraped at once.
func (s *Service) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// SetDefaultProviders sets the provider order for requests that name none.
func (s *Service) SetDefaultProviders(ps []Provider) {
	if len(ps) > 0 {
		s.providers = ps
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Printf("failed to reset jobs: %v", err)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops workers and waits for completion. A running job is
// cancelled and keeps the records it already scraped.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new job from the provided request. Ranges are expanded
// into game ids up front.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	jobType, err := req.DeriveType()
	if err != nil {
		return nil, err
	}

	spec := JobSpec{
		Type:     jobType,
		GameIDs:  req.GameIDs,
		Season:   req.Season,
		GameType: req.GameType,
		First:    req.First,
		Last:     req.Last,
	}
	ids, err := spec.gameIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, err := pbp.Season(id); err != nil {
			return nil, fmt.Errorf("game id %q: %w", id, err)
		}
	}
	providers := s.providers
	if len(req.Providers) > 0 {
		if providers, err = ParseProviders(req.Providers); err != nil {
			return nil, err
		}
	}

	job := &Job{
		JobType:       jobType,
		GameIDs:       ids,
		Providers:     providerNames(providers),
		Live:          req.Live,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: len(ids),
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("queued job %s (%d games)", stored.JobID, len(ids))

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return stored, nil
}

// GetJob returns one job.
func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJob(ctx, jobID)
}

// ListJobs returns the most recent jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.repo.ListRecentJobs(ctx, limit)
}

// Cancel stops a queued or running job. A running job keeps the games it
// already finished.
func (s *Service) Cancel(ctx context.Context, jobID string) (*Job, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case JobStatusQueued:
		if err := s.repo.UpdateStatus(ctx, jobID, JobStatusCancelled, "Cancelled before start", nil); err != nil {
			return nil, err
		}
	case JobStatusRunning:
		s.mu.Lock()
		if stop, ok := s.running[jobID]; ok {
			stop()
		} else {
			s.pending[jobID] = true
		}
		s.mu.Unlock()
	default:
		return job, fmt.Errorf("%s is %s: %w", jobID, job.Status, ErrJobFinished)
	}
	return s.repo.GetJob(ctx, jobID)
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			job, err := s.repo.MarkNextJobRunning(s.ctx)
			if err != nil {
				s.logger.Printf("claim job error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if job == nil {
				select {
				case <-s.ctx.Done():
					return
				case <-s.wake:
					continue
				case <-ticker.C:
					continue
				}
			}

			s.executeJob(job)
		}
	}
}

func (s *Service) executeJob(job *Job) {
	spec, err := s.buildSpec(job)
	if err != nil {
		s.logger.Printf("invalid job spec %s: %v", job.JobID, err)
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Invalid job specification", err)
		return
	}

	jobCtx, stop := context.WithCancel(s.ctx)
	s.mu.Lock()
	s.running[job.JobID] = stop
	if s.pending[job.JobID] {
		delete(s.pending, job.JobID)
		stop()
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.running, job.JobID)
		s.mu.Unlock()
		stop()
	}()

	// Bookkeeping outlives cancellation of the job itself.
	bg := context.WithoutCancel(s.ctx)
	reporter := &jobReporter{
		ctx:   bg,
		repo:  s.repo,
		jobID: job.JobID,
		total: len(spec.GameIDs),
	}

	res, err := s.runner.Run(jobCtx, spec, reporter)
	if err != nil {
		_ = s.repo.UpdateStatus(bg, job.JobID, JobStatusFailed, "Job failed", err)
		return
	}
	_ = s.repo.RecordOutcome(bg, job.JobID, len(res.Records), len(res.Failures))

	var lastErr error
	if n := len(res.Failures); n > 0 {
		lastErr = res.Failures[n-1].Err
	}
	switch {
	case res.Cancelled:
		_ = s.repo.UpdateStatus(bg, job.JobID, JobStatusCancelled,
			fmt.Sprintf("Cancelled after %d games", len(res.Records)), lastErr)
	case len(res.Records) == 0 && len(res.Failures) > 0:
		_ = s.repo.UpdateStatus(bg, job.JobID, JobStatusFailed, "No games scraped", lastErr)
	default:
		_ = s.repo.UpdateStatus(bg, job.JobID, JobStatusCompleted,
			fmt.Sprintf("%d games scraped, %d failed", len(res.Records), len(res.Failures)), lastErr)
	}
}

func (s *Service) buildSpec(job *Job) (JobSpec, error) {
	if len(job.GameIDs) == 0 {
		return JobSpec{}, fmt.Errorf("job missing game_ids")
	}
	names := make([]Provider, 0, len(job.Providers))
	for _, p := range job.Providers {
		names = append(names, Provider(p))
	}
	providers, err := ParseProviders(names)
	if err != nil {
		return JobSpec{}, err
	}
	return JobSpec{
		Type:        JobTypeGames,
		GameIDs:     job.GameIDs,
		Live:        job.Live,
		Providers:   providers,
		Concurrency: s.concurrency,
	}, nil
}

// ParseProviders validates a provider preference list. An empty list means
// DefaultProviders; at most two distinct providers are allowed.
func ParseProviders(in []Provider) ([]Provider, error) {
	if len(in) == 0 {
		return DefaultProviders, nil
	}
	seen := make(map[Provider]bool, len(in))
	out := make([]Provider, 0, len(in))
	for _, p := range in {
		p = Provider(strings.ToLower(strings.TrimSpace(string(p))))
		switch p {
		case ProviderAPI, ProviderESPN:
		default:
			return nil, fmt.Errorf("unknown provider %q", p)
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func providerNames(ps []Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

type jobReporter struct {
	ctx   context.Context
	repo  JobStore
	jobID string
	total int
}

func (r *jobReporter) OnJobStart(spec JobSpec, total int) {
	r.total = total
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, 0, r.total, "Job starting")
}

func (r *jobReporter) OnGameStart(gameID string, index int, total int) {}

func (r *jobReporter) OnGameProcessed(rec *pbp.GameRecord) {}

func (r *jobReporter) OnGameFailed(f GameFailure) {
	log.Printf("[backfill] ⚠️  job %s: game %s %s: %v", r.jobID, f.GameID, f.Outcome, f.Err)
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, current, valueOr(total, r.total), message)
}

func (r *jobReporter) OnJobComplete(res *Result) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, len(res.Records), r.total, "Job complete")
}

func (r *jobReporter) OnJobError(err error) {
	log.Printf("[backfill] ❌ job %s: %v", r.jobID, err)
}

func valueOr(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}
