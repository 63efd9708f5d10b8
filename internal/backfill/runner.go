package backfill

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fortuna/puckline/internal/cache"
	"github.com/fortuna/puckline/internal/fetch"
	"github.com/fortuna/puckline/internal/ingest/espn"
	"github.com/fortuna/puckline/internal/ingest/nhlapi"
	"github.com/fortuna/puckline/internal/pbp"
	"github.com/fortuna/puckline/internal/reconciliation"
)

// ReportsBaseURL is where the HTML game reports live.
const ReportsBaseURL = "https://www.nhl.com/scores/htmlreports"

// Sources are the clients a runner scrapes with. API and ESPN may be nil to
// disable a provider.
type Sources struct {
	Reports        fetch.Fetcher
	ReportsBaseURL string
	API            *nhlapi.Client
	ESPN           *espn.Ingester
	// DocCache keeps report pages of non-live scrapes. Nil disables it.
	DocCache cache.Cache
}

// Options tune retries and per-game fetch parallelism.
type Options struct {
	FetchWorkers     int
	TransientRetries int
	TransientDelay   time.Duration
}

// DefaultOptions mirrors the pacing used in production.
func DefaultOptions() Options {
	return Options{
		FetchWorkers:     fetch.DefaultWorkers,
		TransientRetries: 3,
		TransientDelay:   10 * time.Second,
	}
}

// Runner executes scrape specs game by game.
type Runner struct {
	src    Sources
	pool   *fetch.Pool
	cached *fetch.Pool
	engine *reconciliation.Engine
	sinks  []Sink
	opts   Options
	logger *log.Logger
}

// NewRunner constructs a runner. A nil engine gets a fresh one.
func NewRunner(src Sources, engine *reconciliation.Engine, opts Options, sinks ...Sink) *Runner {
	if src.ReportsBaseURL == "" {
		src.ReportsBaseURL = ReportsBaseURL
	}
	if engine == nil {
		engine = reconciliation.NewEngine()
	}
	pool := fetch.NewPool(src.Reports, opts.FetchWorkers)
	cached := pool
	if src.DocCache != nil {
		cached = fetch.NewPool(fetch.NewCachedFetcher(src.Reports, src.DocCache, 0), opts.FetchWorkers)
	}
	return &Runner{
		src:    src,
		pool:   pool,
		cached: cached,
		engine: engine,
		sinks:  sinks,
		opts:   opts,
		logger: log.New(log.Writer(), "[runner] ", log.LstdFlags),
	}
}

// Engine exposes the reconciliation engine for metrics.
func (r *Runner) Engine() *reconciliation.Engine {
	return r.engine
}

// gameIDs expands a spec into the ordered list of games to scrape.
func (s JobSpec) gameIDs() ([]string, error) {
	switch s.Type {
	case JobTypeGames:
		if len(s.GameIDs) == 0 {
			return nil, fmt.Errorf("no game IDs provided for job type '%s'", s.Type)
		}
		return s.GameIDs, nil
	case JobTypeRange:
		if s.Season < 1917 || s.GameType < 1 || s.GameType > 4 {
			return nil, fmt.Errorf("invalid range season %d type %d", s.Season, s.GameType)
		}
		if s.First < 1 || s.Last < s.First || s.Last > 9999 {
			return nil, fmt.Errorf("invalid game range %d-%d", s.First, s.Last)
		}
		ids := make([]string, 0, s.Last-s.First+1)
		for n := s.First; n <= s.Last; n++ {
			ids = append(ids, fmt.Sprintf("%d%02d%04d", s.Season, s.GameType, n))
		}
		return ids, nil
	}
	return nil, fmt.Errorf("unsupported job type %s", s.Type)
}

// Run executes the job spec, reporting progress via the Reporter if provided.
// Per-game failures never fail the run; they are listed in the result. When
// ctx is cancelled the records gathered so far are still post-processed and
// returned, with Cancelled set.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) (*Result, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}

	ids, err := spec.gameIDs()
	if err != nil {
		reporter.OnJobError(err)
		return nil, err
	}
	reporter.OnJobStart(spec, len(ids))

	if spec.DryRun {
		reporter.OnProgress("Dry-run mode: no data will be written", 0, len(ids))
		res := &Result{}
		reporter.OnJobComplete(res)
		return res, nil
	}

	b := &batch{
		records:  make(map[string]*pbp.GameRecord, len(ids)),
		failures: make(map[string]GameFailure),
		total:    len(ids),
	}
	r.runGames(ctx, ids, spec, reporter, b, r.opts.TransientRetries)

	if ctx.Err() == nil {
		var missing []string
		for _, id := range ids {
			if b.records[id] == nil {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			r.logger.Printf("retrying %d missing games once", len(missing))
			r.runGames(ctx, missing, spec, reporter, b, 0)
		}
	}

	res := &Result{Cancelled: ctx.Err() != nil}
	for _, id := range ids {
		if rec, ok := b.records[id]; ok {
			res.Records = append(res.Records, rec)
		} else if f, ok := b.failures[id]; ok {
			res.Failures = append(res.Failures, f)
		}
	}
	PostProcess(res.Records)

	// Sinks run on their own context so a cancelled batch still lands.
	sinkCtx := context.WithoutCancel(ctx)
	for _, rec := range res.Records {
		r.deliver(sinkCtx, rec)
	}

	if res.Cancelled {
		r.logger.Printf("⚠️  cancelled after %d of %d games", len(res.Records), len(ids))
	} else {
		r.logger.Printf("✓ %d of %d games scraped", len(res.Records), len(ids))
	}
	reporter.OnJobComplete(res)
	return res, nil
}

type batch struct {
	mu       sync.Mutex
	records  map[string]*pbp.GameRecord
	failures map[string]GameFailure
	done     int
	total    int
}

func (r *Runner) runGames(ctx context.Context, ids []string, spec JobSpec, reporter Reporter, b *batch, retries int) {
	var g errgroup.Group
	g.SetLimit(max(spec.Concurrency, 1))

	for idx, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			b.mu.Lock()
			reporter.OnGameStart(id, idx, len(ids))
			b.mu.Unlock()

			rec, failure := r.scrapeWithRetry(ctx, id, spec, retries)

			b.mu.Lock()
			defer b.mu.Unlock()
			if failure != nil {
				b.failures[id] = *failure
				reporter.OnGameFailed(*failure)
				return nil
			}
			delete(b.failures, id)
			b.records[id] = rec
			b.done++
			reporter.OnGameProcessed(rec)
			reporter.OnProgress(fmt.Sprintf("✓ Game %s complete", id), b.done, b.total)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) scrapeWithRetry(ctx context.Context, id string, spec JobSpec, retries int) (*pbp.GameRecord, *GameFailure) {
	for attempt := 0; ; attempt++ {
		start := time.Now()
		rec, outcome, err := r.scrapeGame(ctx, id, spec)
		if outcome == OutcomeOK {
			r.logger.Printf("✓ game %s: %d rows, %s coordinates (%s)", id, len(rec.Rows), rec.CoordinateSource, time.Since(start).Round(time.Millisecond))
			return rec, nil
		}
		if outcome == OutcomeTransient && attempt < retries {
			r.logger.Printf("⚠️  game %s: %v; retrying in %s (%d/%d)", id, err, r.opts.TransientDelay, attempt+1, retries)
			select {
			case <-ctx.Done():
				return nil, &GameFailure{GameID: id, Outcome: OutcomeCancelled, Err: ctx.Err()}
			case <-time.After(r.opts.TransientDelay):
			}
			continue
		}
		if outcome != OutcomeCancelled {
			r.logger.Printf("❌ game %s: %s failure: %v", id, outcome, err)
		}
		return nil, &GameFailure{GameID: id, Outcome: outcome, Err: err}
	}
}

func (r *Runner) deliver(ctx context.Context, rec *pbp.GameRecord) {
	for _, s := range r.sinks {
		if err := s.Write(ctx, rec); err != nil {
			r.logger.Printf("⚠️  sink %s: game %s: %v", s.Name(), rec.GameID, err)
		}
	}
}

// IsCancelled reports whether a failure came from cancellation.
func (f GameFailure) IsCancelled() bool {
	return f.Outcome == OutcomeCancelled || errors.Is(f.Err, context.Canceled)
}

type nopReporter struct{}

func (nopReporter) OnJobStart(JobSpec, int) {}
func (nopReporter) OnGameStart(string, int, int) {}
func (nopReporter) OnGameProcessed(*pbp.GameRecord) {}
func (nopReporter) OnGameFailed(GameFailure) {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnJobComplete(*Result) {}
func (nopReporter) OnJobError(error) {}
