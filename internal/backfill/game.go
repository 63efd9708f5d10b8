package backfill

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/puckline/internal/fetch"
	"github.com/fortuna/puckline/internal/ingest/espn"
	"github.com/fortuna/puckline/internal/ingest/nhlapi"
	"github.com/fortuna/puckline/internal/ingest/reports"
	"github.com/fortuna/puckline/internal/pbp"
	"github.com/fortuna/puckline/internal/reconciliation"
)

// stage is one state of the per-game pipeline.
type stage string

const (
	stageFetch       stage = "FETCH"
	stageParseEvents stage = "PARSE_EVENTS"
	stagePrimary     stage = "TRY_PRIMARY"
	stageSecondary   stage = "TRY_SECONDARY"
	stageHybrid      stage = "TRY_HYBRID"
	stageEventsOnly  stage = "EVENTS_ONLY"
	stageMerge       stage = "MERGE"
	stageNext        stage = "NEXT"
)

// gameRun is the working state of one attempt at one game.
type gameRun struct {
	id        string
	live      bool
	providers []Provider

	docs     map[string]fetch.Result
	roster   *reports.Roster
	events   *reports.EventLog
	shifts   *reports.ShiftLog
	noShifts bool

	// Provider results are kept even when they fail validation so the
	// hybrid stage can combine two partial tables.
	api     *nhlapi.PlayByPlay
	espn    *espn.PlayByPlay
	coords  []pbp.CoordRow
	source  pbp.CoordinateSource
	ids     map[string]int
	noCoord bool

	record *pbp.GameRecord
}

// stageError carries the outcome a failed stage maps to.
type stageError struct {
	stage   stage
	outcome Outcome
	err     error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error {
	return e.err
}

// classify maps a fetch or parse error onto an Outcome.
func classify(ctx context.Context, err error) Outcome {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return OutcomeCancelled
	case errors.Is(err, fetch.ErrTransient):
		return OutcomeTransient
	}
	return OutcomeStructural
}

// scrapeGame drives one game through the pipeline.
func (r *Runner) scrapeGame(ctx context.Context, gameID string, spec JobSpec) (*pbp.GameRecord, Outcome, error) {
	g := &gameRun{id: gameID, live: spec.Live, providers: spec.Providers}
	if len(g.providers) == 0 {
		g.providers = DefaultProviders
	}

	st := stageFetch
	for st != stageNext {
		next, err := r.step(ctx, g, st)
		if err != nil {
			var se *stageError
			if errors.As(err, &se) {
				return nil, se.outcome, err
			}
			return nil, classify(ctx, err), err
		}
		st = next
	}
	return g.record, OutcomeOK, nil
}

func (r *Runner) step(ctx context.Context, g *gameRun, st stage) (stage, error) {
	switch st {
	case stageFetch:
		return stageParseEvents, r.fetchDocuments(ctx, g)
	case stageParseEvents:
		return stagePrimary, r.parseDocuments(g)
	case stagePrimary:
		ok, err := r.tryProvider(ctx, g, g.providers[0])
		if err != nil {
			return stageNext, err
		}
		if ok {
			return stageMerge, nil
		}
		if len(g.providers) > 1 {
			return stageSecondary, nil
		}
		return stageHybrid, nil
	case stageSecondary:
		// A partial primary table is combined with the secondary one
		// rather than discarded.
		ok, err := r.tryProvider(ctx, g, g.providers[1])
		if err != nil {
			return stageNext, err
		}
		if ok && len(g.rows(g.providers[0])) == 0 {
			return stageMerge, nil
		}
		return stageHybrid, nil
	case stageHybrid:
		if r.tryHybrid(g) {
			return stageMerge, nil
		}
		return stageEventsOnly, nil
	case stageEventsOnly:
		r.logger.Printf("⚠️  game %s: no coordinate provider succeeded, emitting events only", g.id)
		g.coords, g.source, g.ids, g.noCoord = nil, pbp.SourceNone, nil, true
		return stageMerge, nil
	case stageMerge:
		return stageNext, r.merge(g)
	}
	return stageNext, fmt.Errorf("unknown stage %q", st)
}

func (r *Runner) reportURL(page, gameID string) (string, error) {
	path, err := reports.PagePath(page, gameID)
	if err != nil {
		return "", err
	}
	return r.src.ReportsBaseURL + "/" + path, nil
}

var reportPages = []string{
	reports.PageRoster,
	reports.PageEvents,
	reports.PageHomeShifts,
	reports.PageAwayShifts,
	reports.PageSummary,
}

func (r *Runner) fetchDocuments(ctx context.Context, g *gameRun) error {
	reqs := make([]fetch.Request, 0, len(reportPages))
	for _, page := range reportPages {
		url, err := r.reportURL(page, g.id)
		if err != nil {
			return &stageError{stageFetch, OutcomeStructural, err}
		}
		reqs = append(reqs, fetch.Request{Key: page, URL: url})
	}

	pool := r.cached
	if g.live {
		pool = r.pool
	}
	docs, err := pool.FetchAll(ctx, reqs)
	if err != nil {
		return &stageError{stageFetch, OutcomeCancelled, err}
	}
	g.docs = docs

	for _, page := range []string{reports.PageRoster, reports.PageEvents, reports.PageHomeShifts, reports.PageAwayShifts} {
		res := docs[page]
		if res.Err == nil {
			continue
		}
		outcome := classify(ctx, res.Err)
		shiftPage := page == reports.PageHomeShifts || page == reports.PageAwayShifts
		if shiftPage && outcome == OutcomeStructural {
			r.logger.Printf("⚠️  game %s: %s report unavailable: %v", g.id, page, res.Err)
			g.noShifts = true
			continue
		}
		return &stageError{stageFetch, outcome, fmt.Errorf("%s report: %w", page, res.Err)}
	}
	return nil
}

func (r *Runner) parseDocuments(g *gameRun) error {
	season, err := pbp.Season(g.id)
	if err != nil {
		return &stageError{stageParseEvents, OutcomeStructural, err}
	}
	g.roster, err = reports.ParseRoster(g.docs[reports.PageRoster].Body, season)
	if err != nil {
		return &stageError{stageParseEvents, OutcomeStructural, fmt.Errorf("roster: %w", err)}
	}
	g.events, err = reports.ParseEvents(g.docs[reports.PageEvents].Body, g.roster, g.id)
	if err != nil {
		return &stageError{stageParseEvents, OutcomeStructural, fmt.Errorf("events: %w", err)}
	}

	if g.noShifts {
		return nil
	}
	in := reports.ShiftInput{
		GameID: g.id,
		Home:   g.docs[reports.PageHomeShifts].Body,
		Away:   g.docs[reports.PageAwayShifts].Body,
		Roster: g.roster,
		Live:   g.live,
	}
	if res := g.docs[reports.PageSummary]; res.Err == nil {
		in.Summary = res.Body
	}
	g.shifts, err = reports.ParseShifts(in)
	if err != nil {
		// A garbled shift report degrades the game instead of failing it.
		if !errors.Is(err, pbp.ErrNoShiftData) {
			r.logger.Printf("⚠️  game %s: shift reports unusable: %v", g.id, err)
		}
		g.noShifts = true
		g.shifts = nil
	}
	return nil
}

// tryProvider fetches one provider's coordinates. A provider that answers
// but cannot serve the game reports false so the next stage runs. Transient
// and cancelled fetches return a stageError instead, which sends the whole
// game back through scrapeWithRetry.
func (r *Runner) tryProvider(ctx context.Context, g *gameRun, p Provider) (bool, error) {
	switch p {
	case ProviderAPI:
		if r.src.API == nil {
			return false, nil
		}
		feed, err := r.src.API.PlayByPlay(ctx, g.id)
		if err != nil {
			return false, r.providerFailure(ctx, g, p, err)
		}
		g.api = feed
		if err := feed.Validate(); err != nil {
			r.logger.Printf("⚠️  game %s: api coordinates incomplete: %v", g.id, err)
			return false, nil
		}
		g.coords, g.source, g.ids = feed.Rows, pbp.SourceAPI, feed.Roster
		return true, nil

	case ProviderESPN:
		if r.src.ESPN == nil {
			return false, nil
		}
		feed, err := r.src.ESPN.Coordinates(ctx, espn.GameRef{
			GameID: g.id,
			Date:   g.events.GameDate,
			Home:   g.events.HomeTeam,
			Away:   g.events.AwayTeam,
		})
		if err != nil {
			return false, r.providerFailure(ctx, g, p, err)
		}
		if len(feed.Rows) == 0 {
			r.logger.Printf("⚠️  game %s: espn returned no coordinates", g.id)
			return false, nil
		}
		g.espn = feed
		g.coords, g.source, g.ids = feed.Rows, pbp.SourceESPN, nil
		return true, nil
	}
	r.logger.Printf("⚠️  unknown provider %q", p)
	return false, nil
}

// providerFailure logs a failed provider fetch. Only structural failures
// are swallowed.
func (r *Runner) providerFailure(ctx context.Context, g *gameRun, p Provider, err error) error {
	st := stagePrimary
	if p != g.providers[0] {
		st = stageSecondary
	}
	outcome := classify(ctx, err)
	if outcome != OutcomeStructural {
		return &stageError{st, outcome, fmt.Errorf("%s coordinates: %w", p, err)}
	}
	r.logger.Printf("⚠️  game %s: %s coordinates failed: %v", g.id, p, err)
	return nil
}

// rows returns what provider p fetched, valid or not.
func (g *gameRun) rows(p Provider) []pbp.CoordRow {
	switch {
	case p == ProviderAPI && g.api != nil:
		return g.api.Rows
	case p == ProviderESPN && g.espn != nil:
		return g.espn.Rows
	}
	return nil
}

// tryHybrid combines whatever partial tables the providers left behind.
func (r *Runner) tryHybrid(g *gameRun) bool {
	apiRows, espnRows := g.rows(ProviderAPI), g.rows(ProviderESPN)
	if g.api != nil {
		g.ids = g.api.Roster
	}
	switch {
	case len(apiRows) > 0 && len(espnRows) > 0:
		g.coords, g.source = reconciliation.MergeHybrid(apiRows, espnRows), pbp.SourceHybrid
	case len(apiRows) > 0:
		g.coords, g.source = apiRows, pbp.SourceAPI
	case len(espnRows) > 0:
		g.coords, g.source, g.ids = espnRows, pbp.SourceESPN, nil
	default:
		return false
	}
	r.logger.Printf("game %s: using %s coordinates (%d rows)", g.id, g.source, len(g.coords))
	return true
}

func (r *Runner) merge(g *gameRun) error {
	el := g.events
	in := reconciliation.Input{
		GameID:           g.id,
		Season:           el.Season,
		GameDate:         el.GameDate,
		HomeTeam:         el.HomeTeam,
		AwayTeam:         el.AwayTeam,
		HomeTeamName:     firstNonEmpty(el.HomeTeamName, g.roster.HomeTeamName),
		AwayTeamName:     firstNonEmpty(el.AwayTeamName, g.roster.AwayTeamName),
		Playoff:          el.Playoff,
		Live:             g.live,
		Events:           el.Events,
		Roster:           g.roster.Entries,
		NoShiftData:      g.noShifts,
		Coords:           g.coords,
		CoordinateSource: g.source,
		PlayerIDs:        g.ids,
	}
	if g.shifts != nil {
		in.Changes = g.shifts.Changes
	}

	rec, err := r.engine.Reconcile(in)
	if err != nil {
		return &stageError{stageMerge, OutcomeStructural, err}
	}
	if g.noCoord {
		rec.AddWarning(pbp.WarningNoCoordinates)
	}
	g.record = rec
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
