package reconciliation

import (
	"github.com/fortuna/puckline/internal/pbp"
)

// coordKey is the primary join key between an event and a coordinate row.
type coordKey struct {
	player  string
	gs      int
	version int
	period  int
	typ     string
}

// tickKey is the same key without the player.
type tickKey struct {
	gs      int
	period  int
	version int
	typ     string
}

type joinStats struct {
	primary   int
	timing    int
	identity  int
	unlocated int
}

// matcher pairs events with coordinate rows. Each coordinate row is
// adopted at most once.
type matcher struct {
	coords  []pbp.CoordRow
	used    []bool
	byKey   map[coordKey][]int
	byTick  map[tickKey][]int
	byIDKey map[int]map[tickKey][]int
}

func newMatcher(coords []pbp.CoordRow) *matcher {
	m := &matcher{
		coords:  coords,
		used:    make([]bool, len(coords)),
		byKey:   make(map[coordKey][]int),
		byTick:  make(map[tickKey][]int),
		byIDKey: make(map[int]map[tickKey][]int),
	}
	for i, c := range coords {
		if !c.HasXY {
			continue
		}
		t := tickKey{c.GameSeconds, c.Period, c.Version, c.Type}
		k := coordKey{c.Player, c.GameSeconds, c.Version, c.Period, c.Type}
		m.byKey[k] = append(m.byKey[k], i)
		m.byTick[t] = append(m.byTick[t], i)
		if c.PlayerID != 0 {
			if m.byIDKey[c.PlayerID] == nil {
				m.byIDKey[c.PlayerID] = make(map[tickKey][]int)
			}
			m.byIDKey[c.PlayerID][t] = append(m.byIDKey[c.PlayerID][t], i)
		}
	}
	return m
}

func (m *matcher) first(candidates []int) (int, bool) {
	for _, i := range candidates {
		if !m.used[i] {
			return i, true
		}
	}
	return 0, false
}

// only returns the candidate when it is the sole row at its tick and is
// still free. Rows already taken by an earlier join still count, so a
// leftover row at a shared tick is never handed to another player.
func (m *matcher) only(candidates []int) (int, bool) {
	if len(candidates) != 1 || m.used[candidates[0]] {
		return 0, false
	}
	return candidates[0], true
}

func (m *matcher) adopt(ev *pbp.Event, i int) {
	c := m.coords[i]
	m.used[i] = true
	ev.SetCoords(c.X, c.Y, c.Source)
}

// attachCoords runs the primary join and then the timing-only and identity
// tiers for fenwick events that are still unlocated. Events that already
// carry coordinates are left alone.
func attachCoords(events []pbp.Event, coords []pbp.CoordRow, ids map[string]int) joinStats {
	var st joinStats
	if len(coords) == 0 {
		for _, ev := range events {
			if pbp.IsFenwick(ev.Type) && !ev.HasCoords() {
				st.unlocated++
			}
		}
		return st
	}
	m := newMatcher(coords)

	for i := range events {
		ev := &events[i]
		if ev.HasCoords() || ev.Player1 == "" {
			continue
		}
		k := coordKey{ev.Player1, ev.GameSeconds, ev.Version, ev.Period, ev.Type}
		if j, ok := m.first(m.byKey[k]); ok {
			m.adopt(ev, j)
			st.primary++
		}
	}

	for i := range events {
		ev := &events[i]
		if ev.HasCoords() || !pbp.IsFenwick(ev.Type) {
			continue
		}
		t := tickKey{ev.GameSeconds, ev.Period, ev.Version, ev.Type}
		if j, ok := m.only(m.byTick[t]); ok {
			m.adopt(ev, j)
			st.timing++
		}
	}

	for i := range events {
		ev := &events[i]
		if ev.HasCoords() || !pbp.IsFenwick(ev.Type) {
			continue
		}
		id, ok := ids[ev.Player1]
		if !ok {
			continue
		}
		t := tickKey{ev.GameSeconds, ev.Period, ev.Version, ev.Type}
		if j, ok := m.first(m.byIDKey[id][t]); ok {
			m.adopt(ev, j)
			st.identity++
		}
	}

	for _, ev := range events {
		if pbp.IsFenwick(ev.Type) && !ev.HasCoords() {
			st.unlocated++
		}
	}
	return st
}
