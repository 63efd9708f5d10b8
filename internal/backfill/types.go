package backfill

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/puckline/internal/pbp"
)

// JobType enumerates the supported scrape job variants.
type JobType string

const (
	// JobTypeGames scrapes an explicit list of game ids.
	JobTypeGames JobType = "games"
	// JobTypeRange scrapes consecutive game numbers of one season and type.
	JobTypeRange JobType = "range"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job models the database representation of a scrape job.
type Job struct {
	JobID           string
	JobType         JobType
	GameIDs         pq.StringArray
	Providers       pq.StringArray
	Live            bool
	Status          JobStatus
	StatusMessage   sql.NullString
	ProgressCurrent int
	ProgressTotal   int
	Succeeded       int
	Failed          int
	LastError       sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	return &cpy
}

// Provider names a coordinate source.
type Provider string

const (
	ProviderAPI  Provider = "api"
	ProviderESPN Provider = "espn"
)

// DefaultProviders is the usual preference order.
var DefaultProviders = []Provider{ProviderAPI, ProviderESPN}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Type    JobType
	GameIDs []string
	// Season, GameType, First and Last describe a JobTypeRange, e.g.
	// 2023, 2, 1, 1312 for the whole 2023-24 regular season.
	Season   int
	GameType int
	First    int
	Last     int

	Live      bool
	Providers []Provider
	// Concurrency is the number of games scraped at once. Zero means one.
	Concurrency int
	DryRun      bool
}

// Outcome classifies the result of one attempt at one game.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeStructural means a mandatory document was garbled or a
	// placeholder. Retrying right away will not help.
	OutcomeStructural
	// OutcomeTransient means a network failure; the same game is retried.
	OutcomeTransient
	// OutcomeCancelled means the context ended mid-game.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeStructural:
		return "structural"
	case OutcomeTransient:
		return "transient"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// GameFailure records why a game produced no record.
type GameFailure struct {
	GameID  string
	Outcome Outcome
	Err     error
}

// Result is everything a run produced. Records are post-processed and in
// request order.
type Result struct {
	Records   []*pbp.GameRecord
	Failures  []GameFailure
	Cancelled bool
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec, total int)
	OnGameStart(gameID string, index int, total int)
	OnGameProcessed(rec *pbp.GameRecord)
	OnGameFailed(failure GameFailure)
	OnProgress(message string, current int, total int)
	OnJobComplete(result *Result)
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}
