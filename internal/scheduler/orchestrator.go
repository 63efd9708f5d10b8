package scheduler

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/fortuna/puckline/internal/backfill"
	"github.com/fortuna/puckline/internal/pbp"
)

// Scraper runs one scrape of a set of games.
type Scraper interface {
	Run(ctx context.Context, spec backfill.JobSpec, reporter backfill.Reporter) (*backfill.Result, error)
}

// Config holds scheduler configuration
type Config struct {
	LivePollInterval time.Duration // Default: 30s
	Providers        []backfill.Provider
	// MaxFailures drops a game after this many failed polls in a row.
	MaxFailures int // Default: 5
	Concurrency int // Default: 4
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		LivePollInterval: 30 * time.Second,
		Providers:        backfill.DefaultProviders,
		MaxFailures:      5,
		Concurrency:      4,
	}
}

type tracked struct {
	since    time.Time
	polls    int
	failures int
	lastErr  error
}

// Orchestrator re-scrapes in-progress games until their report shows the
// game ended. It is also a sink: live records from any run start tracking
// and finished records stop it.
type Orchestrator struct {
	scraper Scraper
	config  Config

	mu    sync.Mutex
	games map[string]*tracked

	logger *log.Logger
}

// NewOrchestrator creates a new live poller
func NewOrchestrator(scraper Scraper, config Config) *Orchestrator {
	def := DefaultConfig()
	if config.LivePollInterval <= 0 {
		config.LivePollInterval = def.LivePollInterval
	}
	if len(config.Providers) == 0 {
		config.Providers = def.Providers
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = def.MaxFailures
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	return &Orchestrator{
		scraper: scraper,
		config:  config,
		games:   make(map[string]*tracked),
		logger:  log.New(log.Writer(), "[live] ", log.LstdFlags),
	}
}

// Track adds a game to the poll set.
func (o *Orchestrator) Track(gameID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.games[gameID]; !ok {
		o.games[gameID] = &tracked{since: time.Now()}
		o.logger.Printf("→ tracking %s", gameID)
	}
}

// Untrack removes a game from the poll set.
func (o *Orchestrator) Untrack(gameID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.games[gameID]; ok {
		delete(o.games, gameID)
		o.logger.Printf("✓ stopped tracking %s", gameID)
	}
}

// Tracked returns the polled game ids in order.
func (o *Orchestrator) Tracked() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.games))
	for id := range o.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Name identifies the poller as a sink.
func (o *Orchestrator) Name() string {
	return "live-poller"
}

// Write tracks live records and untracks finished ones.
func (o *Orchestrator) Write(_ context.Context, rec *pbp.GameRecord) error {
	if Finished(rec) {
		o.Untrack(rec.GameID)
		return nil
	}
	if rec.Live {
		o.Track(rec.GameID)
	}
	return nil
}

// Finished reports whether the record contains the game end event.
func Finished(rec *pbp.GameRecord) bool {
	for i := len(rec.Rows) - 1; i >= 0; i-- {
		if rec.Rows[i].Type == pbp.TypeGEnd {
			return true
		}
	}
	return false
}

// Start polls until ctx is done.
func (o *Orchestrator) Start(ctx context.Context) {
	o.logger.Printf("→ live polling started (interval: %v)", o.config.LivePollInterval)

	ticker := time.NewTicker(o.config.LivePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Println("→ live polling stopped")
			return
		case <-ticker.C:
			o.Poll(ctx)
		}
	}
}

// Poll scrapes every tracked game once.
func (o *Orchestrator) Poll(ctx context.Context) {
	ids := o.Tracked()
	if len(ids) == 0 {
		return
	}

	spec := backfill.JobSpec{
		Type:        backfill.JobTypeGames,
		GameIDs:     ids,
		Live:        true,
		Providers:   o.config.Providers,
		Concurrency: o.config.Concurrency,
	}
	res, err := o.scraper.Run(ctx, spec, nil)
	if err != nil {
		o.logger.Printf("❌ poll failed: %v", err)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range res.Records {
		if g, ok := o.games[rec.GameID]; ok {
			g.polls++
			g.failures = 0
			g.lastErr = nil
		}
	}
	for _, f := range res.Failures {
		g, ok := o.games[f.GameID]
		if !ok || f.Outcome == backfill.OutcomeCancelled {
			continue
		}
		g.failures++
		g.lastErr = f.Err
		if g.failures >= o.config.MaxFailures {
			delete(o.games, f.GameID)
			o.logger.Printf("⚠️  dropping %s after %d failed polls: %v", f.GameID, g.failures, f.Err)
		}
	}
	if n := len(res.Records); n > 0 {
		o.logger.Printf("✓ polled %d live games", n)
	}
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	games := make(map[string]interface{}, len(o.games))
	for id, g := range o.games {
		entry := map[string]interface{}{
			"since":    g.since,
			"polls":    g.polls,
			"failures": g.failures,
		}
		if g.lastErr != nil {
			entry["last_error"] = g.lastErr.Error()
		}
		games[id] = entry
	}
	return map[string]interface{}{
		"live_poll_interval": o.config.LivePollInterval.String(),
		"games":              games,
	}
}

// ScraperFunc adapts a function to Scraper.
type ScraperFunc func(ctx context.Context, spec backfill.JobSpec, reporter backfill.Reporter) (*backfill.Result, error)

// Run calls f.
func (f ScraperFunc) Run(ctx context.Context, spec backfill.JobSpec, reporter backfill.Reporter) (*backfill.Result, error) {
	return f(ctx, spec, reporter)
}
