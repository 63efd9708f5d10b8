package reconciliation

import (
	"fmt"
	"log"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/facette/natsort"

	"github.com/fortuna/puckline/internal/pbp"
)

// game is the per-reconciliation working state. Nothing in it outlives one
// Reconcile call.
type game struct {
	id      string
	home    string
	away    string
	playoff bool

	dressed map[pbp.Venue][]pbp.RosterEntry
	goalies map[string]bool

	// jumpOn and jumpOff hold the "TBL21" tokens of each timeline row.
	jumpOn  [][]string
	jumpOff [][]string
}

func newGame(in Input) *game {
	g := &game{
		id:      in.GameID,
		home:    in.HomeTeam,
		away:    in.AwayTeam,
		playoff: in.Playoff,
		dressed: make(map[pbp.Venue][]pbp.RosterEntry),
		goalies: make(map[string]bool),
	}
	for _, e := range in.Roster {
		if e.Status != pbp.StatusPlayer {
			continue
		}
		g.dressed[e.Venue] = append(g.dressed[e.Venue], e)
		if e.IsGoalie() {
			g.goalies[e.Name] = true
		}
	}
	return g
}

func (g *game) abbr(v pbp.Venue) string {
	if v == pbp.Home {
		return g.home
	}
	return g.away
}

// sortKey orders the merged timeline. changePrio puts the away change ahead
// of the home change on the same tick.
type sortKey struct {
	gs         int
	period     int
	priority   int
	index      int
	changePrio int
}

func (a sortKey) less(b sortKey) bool {
	switch {
	case a.gs != b.gs:
		return a.gs < b.gs
	case a.period != b.period:
		return a.period < b.period
	case a.priority != b.priority:
		return a.priority < b.priority
	case a.index != b.index:
		return a.index < b.index
	}
	return a.changePrio < b.changePrio
}

type entry struct {
	row     pbp.Row
	key     sortKey
	on, off []string
}

func blankSlots() [9]string {
	var s [9]string
	for i := range s {
		s[i] = pbp.Blank
	}
	return s
}

func orBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return pbp.Blank
	}
	return s
}

func newRow(ev pbp.Event) pbp.Row {
	return pbp.Row{
		Event:      ev,
		PlayersOn:  pbp.Blank,
		PlayersOff: pbp.Blank,
		HomeOn:     blankSlots(),
		AwayOn:     blankSlots(),
		HomeGoalie: pbp.Blank,
		AwayGoalie: pbp.Blank,
	}
}

func eventKey(ev pbp.Event) sortKey {
	return sortKey{ev.GameSeconds, ev.Period, ev.Priority, ev.EventIndex, 0}
}

// eventRows orders events on their own, for games without shift data.
func (g *game) eventRows(events []pbp.Event) []pbp.Row {
	sorted := slices.Clone(events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return eventKey(sorted[i]).less(eventKey(sorted[j]))
	})
	rows := make([]pbp.Row, len(sorted))
	for i, ev := range sorted {
		ev.EventIndex = i + 1
		rows[i] = newRow(ev)
	}
	return rows
}

// teamTokens turns "21, 77" into ["TBL21", "TBL77"].
func teamTokens(abbr, numbers string) []string {
	var out []string
	for _, n := range strings.Split(numbers, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, abbr+n)
		}
	}
	return out
}

// timeline interleaves events with one CHANGE row per team and tick, then
// renumbers event_index densely from 1.
func (g *game) timeline(events []pbp.Event, changes []pbp.Change) []pbp.Row {
	entries := make([]entry, 0, len(events)+len(changes))
	for _, ev := range events {
		entries = append(entries, entry{row: newRow(ev), key: eventKey(ev)})
	}
	for _, c := range changes {
		abbr, prio := g.away, -1
		if c.Venue == pbp.Home {
			abbr, prio = g.home, 1
		}
		row := newRow(pbp.Event{
			EventIndex:  math.MaxInt,
			Period:      c.Period,
			Clock:       c.Clock,
			GameSeconds: c.GameSeconds,
			Type:        pbp.TypeChange,
			Description: pbp.Blank,
			EventTeam:   abbr,
			Priority:    pbp.Priority(pbp.TypeChange),
		})
		on, off := teamTokens(abbr, c.OnNumbers), teamTokens(abbr, c.OffNumbers)
		row.NumOn, row.NumOff = c.NumberOn, c.NumberOff
		row.PlayersOn = orBlank(strings.Join(on, ", "))
		row.PlayersOff = orBlank(strings.Join(off, ", "))
		entries = append(entries, entry{
			row: row,
			key: sortKey{c.GameSeconds, c.Period, row.Priority, math.MaxInt, prio},
			on:  on,
			off: off,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key.less(entries[j].key)
	})

	rows := make([]pbp.Row, len(entries))
	g.jumpOn = make([][]string, len(entries))
	g.jumpOff = make([][]string, len(entries))
	for i, e := range entries {
		e.row.EventIndex = i + 1
		rows[i] = e.row
		g.jumpOn[i] = e.on
		g.jumpOff[i] = e.off
	}
	return rows
}

// onIce fills the on-ice slots. Each dressed player carries a running sum
// over the timeline, +1 when their token jumps on and -1 when it jumps off
// on a CHANGE row; they are on the ice exactly while the sum is 1.
func (g *game) onIce(rows []pbp.Row) {
	on := map[pbp.Venue][][]string{
		pbp.Home: make([][]string, len(rows)),
		pbp.Away: make([][]string, len(rows)),
	}
	for venue, players := range g.dressed {
		abbr := g.abbr(venue)
		for _, p := range players {
			token := abbr + p.Number
			sum := 0
			for i := range rows {
				if slices.Contains(g.jumpOn[i], token) {
					sum++
				}
				if rows[i].Type == pbp.TypeChange && slices.Contains(g.jumpOff[i], token) {
					sum--
				}
				if sum == 1 {
					on[venue][i] = append(on[venue][i], p.Name)
				}
			}
		}
	}

	overflow := 0
	for i := range rows {
		var over bool
		rows[i].HomeOn, over = slots(on[pbp.Home][i])
		if over {
			overflow++
		}
		rows[i].AwayOn, over = slots(on[pbp.Away][i])
		if over {
			overflow++
		}
	}
	if overflow > 0 {
		log.Printf("[reconcile] ⚠️  game %s: %d rows with more than nine players on one side", g.id, overflow)
	}
}

// slots natural-sorts names into the nine on-ice columns.
func slots(names []string) ([9]string, bool) {
	s := blankSlots()
	natsort.Sort(names)
	for i, n := range names {
		if i == len(s) {
			return s, true
		}
		s[i] = n
	}
	return s, false
}

func (g *game) goalie(slots [9]string) string {
	for _, n := range slots {
		if g.goalies[n] {
			return n
		}
	}
	return pbp.Blank
}

func occupied(slots [9]string) int {
	n := 0
	for _, s := range slots {
		if s != pbp.Blank {
			n++
		}
	}
	return n
}

func (g *game) skaters(slots [9]string, goalie string, period int) int {
	n := occupied(slots)
	if goalie != pbp.Blank && (period < 5 || g.playoff) {
		n--
	}
	return n
}

func strengthState(homeSkaters int, homeGoalie string, awaySkaters int, awayGoalie string) string {
	side := func(n int, goalie string) string {
		if goalie == pbp.Blank {
			return "E"
		}
		return strconv.Itoa(n)
	}
	return side(homeSkaters, homeGoalie) + "v" + side(awaySkaters, awayGoalie)
}

func (g *game) strength(rows []pbp.Row) {
	for i := range rows {
		r := &rows[i]
		r.HomeGoalie = g.goalie(r.HomeOn)
		r.AwayGoalie = g.goalie(r.AwayOn)
		r.HomeSkaters = g.skaters(r.HomeOn, r.HomeGoalie, r.Period)
		r.AwaySkaters = g.skaters(r.AwayOn, r.AwayGoalie, r.Period)
		r.StrengthState = strengthState(r.HomeSkaters, r.HomeGoalie, r.AwaySkaters, r.AwayGoalie)
	}
}

// score counts goals entering each row: a GOAL is credited on the row after
// it, so the goal row itself still shows the score it changed.
func (g *game) score(rows []pbp.Row) {
	home, away := 0, 0
	for i := range rows {
		if i > 0 && rows[i-1].Type == pbp.TypeGoal && (rows[i].Period < 5 || g.playoff) {
			switch rows[i-1].EventTeam {
			case g.home:
				home++
			case g.away:
				away++
			}
		}
		rows[i].HomeScore = home
		rows[i].AwayScore = away
		rows[i].ScoreState = scoreState(home, away)
	}
}

func scoreState(home, away int) string {
	return fmt.Sprintf("%dv%d", home, away)
}
