// Package reconciliation joins a game's event log with a coordinate table and
// the shift change stream into the finished per-event record.
package reconciliation

import (
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/fortuna/puckline/internal/pbp"
)

// Engine reconciles games. One engine is shared by every worker; only its
// metrics are mutable.
type Engine struct {
	mu      sync.Mutex
	metrics *Metrics
}

// Metrics tracks reconciliation statistics
type Metrics struct {
	TotalReconciliations int
	PrimaryMatches       int
	TimingRecoveries     int
	IdentityRecoveries   int
	// Unlocated counts fenwick events left without coordinates.
	Unlocated          int
	NoShiftData        int
	LiveRowsDropped    int
	LastReconciliation time.Time
}

// NewEngine creates a new reconciliation engine
func NewEngine() *Engine {
	return &Engine{
		metrics: &Metrics{
			LastReconciliation: time.Now(),
		},
	}
}

// Input is everything known about one game once its documents are parsed.
type Input struct {
	GameID       string
	Season       string
	GameDate     time.Time
	HomeTeam     string // abbreviation, as used in the event log
	AwayTeam     string
	HomeTeamName string
	AwayTeamName string
	Playoff      bool
	Live         bool

	Events []pbp.Event
	// Roster holds dressed players and scratches for both sides.
	Roster []pbp.RosterEntry

	Changes     []pbp.Change
	NoShiftData bool

	Coords           []pbp.CoordRow
	CoordinateSource pbp.CoordinateSource
	// PlayerIDs maps normalized names to API player ids for the identity
	// tier. Nil when the coordinates came from ESPN alone.
	PlayerIDs map[string]int
}

// Reconcile builds the game record. Events are never modified in place.
// A game without shift data still produces a record, tagged with
// pbp.WarningNoShiftData and without on-ice columns.
func (e *Engine) Reconcile(in Input) (*pbp.GameRecord, error) {
	if len(in.Events) == 0 {
		return nil, fmt.Errorf("game %s has no events: %w", in.GameID, pbp.ErrStructural)
	}
	if in.HomeTeam == "" || in.AwayTeam == "" {
		return nil, fmt.Errorf("game %s has no team abbreviations: %w", in.GameID, pbp.ErrStructural)
	}

	events := slices.Clone(in.Events)
	stats := attachCoords(events, in.Coords, in.PlayerIDs)

	source := in.CoordinateSource
	if len(in.Coords) == 0 || source == "" {
		source = pbp.SourceNone
	}

	rec := &pbp.GameRecord{
		GameID:           in.GameID,
		Season:           in.Season,
		GameDate:         in.GameDate,
		HomeTeam:         in.HomeTeam,
		AwayTeam:         in.AwayTeam,
		HomeTeamName:     in.HomeTeamName,
		AwayTeamName:     in.AwayTeamName,
		CoordinateSource: source,
		Live:             in.Live,
	}

	g := newGame(in)
	dropped := 0
	if in.NoShiftData {
		rec.AddWarning(pbp.WarningNoShiftData)
		rec.Rows = g.eventRows(events)
		g.score(rec.Rows)
		log.Printf("[reconcile] ⚠️  game %s has no shift data, on-ice columns left empty", in.GameID)
	} else {
		rows := g.timeline(events, in.Changes)
		g.onIce(rows)
		g.strength(rows)
		g.score(rows)
		if !in.Playoff {
			g.shootout(rows)
		}
		if in.Live {
			kept := truncateLive(rows, in.HomeTeam, in.AwayTeam)
			dropped = len(rows) - len(kept)
			rows = kept
		}
		rec.Rows = rows
	}
	describe(rec.Rows)

	e.record(stats, in.NoShiftData, dropped)
	log.Printf("[reconcile] ✓ game %s: %d rows (%d primary, %d timing, %d identity, %d unlocated)",
		in.GameID, len(rec.Rows), stats.primary, stats.timing, stats.identity, stats.unlocated)
	return rec, nil
}

func (e *Engine) record(stats joinStats, noShifts bool, dropped int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics.TotalReconciliations++
	e.metrics.PrimaryMatches += stats.primary
	e.metrics.TimingRecoveries += stats.timing
	e.metrics.IdentityRecoveries += stats.identity
	e.metrics.Unlocated += stats.unlocated
	e.metrics.LiveRowsDropped += dropped
	if noShifts {
		e.metrics.NoShiftData++
	}
	e.metrics.LastReconciliation = time.Now()
}

// GetMetrics returns current reconciliation metrics
func (e *Engine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.metrics
}

// ResetMetrics resets all metrics
func (e *Engine) ResetMetrics() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = &Metrics{
		LastReconciliation: time.Now(),
	}
}
