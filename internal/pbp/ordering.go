package pbp

import (
	"sort"
	"strings"
)

var priorities = map[string]int{
	TypeTake:    1,
	TypeGive:    1,
	TypeMiss:    1,
	TypeHit:     1,
	TypeShot:    1,
	TypeBlock:   1,
	TypeGoal:    2,
	TypeStop:    3,
	TypeDelPen:  4,
	TypePenalty: 5,
	TypeChange:  6,
	TypePEnd:    7,
	TypeGEnd:    8,
	TypeFaceoff: 9,
}

// Priority orders events that share a game second. Shot-class events sort
// ahead of CHANGE, which is a known approximation when a line change and a
// delayed penalty expiry land on the same tick as a shot.
func Priority(eventType string) int {
	return priorities[eventType]
}

var fenwick = map[string]bool{
	TypeShot:  true,
	TypeHit:   true,
	TypeBlock: true,
	TypeMiss:  true,
	TypeGive:  true,
	TypeTake:  true,
	TypeGoal:  true,
}

// IsFenwick reports whether an event type carries a meaningful location.
func IsFenwick(eventType string) bool {
	return fenwick[eventType]
}

// IsShotAttempt covers the events that imply a goalie in the opposing net.
func IsShotAttempt(eventType string) bool {
	switch eventType {
	case TypeShot, TypeMiss, TypeGoal:
		return true
	}
	return false
}

// VersionKey is what two rows must share to count as repeats of each other.
type VersionKey struct {
	Type        string
	Player      string
	GameSeconds int
	Period      int
	Description string
}

// Less is the order repeats are numbered in: game seconds, period, player,
// then event type. The event log and every coordinate provider sort with it
// so the same repeat gets the same version on both sides of the join.
func (k VersionKey) Less(o VersionKey) bool {
	if k.GameSeconds != o.GameSeconds {
		return k.GameSeconds < o.GameSeconds
	}
	if k.Period != o.Period {
		return k.Period < o.Period
	}
	if k.Player != o.Player {
		return k.Player < o.Player
	}
	return k.Type < o.Type
}

func (k VersionKey) same(o VersionKey) bool {
	return k.Type == o.Type && k.Player == o.Player && k.GameSeconds == o.GameSeconds
}

// Versions numbers repeated events. keys must already be sorted so repeats
// are adjacent. Each row is compared with the rows one, two and three
// positions back; a penalty shot never takes version 2 because those are
// legitimately distinct attempts.
func Versions(keys []VersionKey) []int {
	out := make([]int, len(keys))
	for i, k := range keys {
		if k.Player == "" {
			continue
		}
		if i >= 1 && k.same(keys[i-1]) {
			out[i] = 1
		}
		if i >= 2 && k.same(keys[i-2]) && !strings.Contains(k.Description, "Penalty Shot") {
			out[i] = 2
		}
		if i >= 3 && k.same(keys[i-3]) {
			out[i] = 3
		}
	}
	return out
}

// Rink bounds for provider coordinates.
const (
	MaxX = 99
	MinY = -42
)

// ClipCoords keeps a provider location inside the rink bounds the reports use.
func ClipCoords(x, y int) (int, int) {
	return min(x, MaxX), max(y, MinY)
}

// AssignVersions sorts coordinate rows into version order and numbers
// repeats.
func AssignVersions(rows []CoordRow) {
	key := func(r CoordRow) VersionKey {
		return VersionKey{Type: r.Type, Player: r.Player, GameSeconds: r.GameSeconds, Period: r.Period, Description: r.Description}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return key(rows[i]).Less(key(rows[j]))
	})
	keys := make([]VersionKey, len(rows))
	for i, r := range rows {
		keys[i] = key(r)
	}
	for i, v := range Versions(keys) {
		rows[i].Version = v
	}
}
