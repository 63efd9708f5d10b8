package reconciliation

import (
	"log"

	"github.com/fortuna/puckline/internal/pbp"
)

var validStrengths = map[string]bool{
	"3v3": true, "4v4": true, "5v5": true,
	"5v4": true, "4v5": true, "5v3": true, "3v5": true, "4v3": true, "3v4": true,
	"5vE": true, "Ev5": true, "4vE": true, "Ev4": true, "3vE": true, "Ev3": true,
}

// truncateLive drops the unsettled tail of an in-progress game. Shift
// reports only list a shift once it ends, so the newest events run ahead of
// the on-ice columns. Everything from the first shot recorded against an
// empty net on the opposing side is discarded, and so is everything after
// the last row with a plausible strength state.
func truncateLive(rows []pbp.Row, home, away string) []pbp.Row {
	for i, r := range rows {
		if !pbp.IsShotAttempt(r.Type) {
			continue
		}
		if (r.EventTeam == home && r.AwayGoalie == pbp.Blank) || (r.EventTeam == away && r.HomeGoalie == pbp.Blank) {
			log.Printf("[reconcile] ⚠️  live: %s by %s against an empty net at event %d, truncating", r.Type, r.EventTeam, r.EventIndex)
			rows = rows[:i]
			break
		}
	}

	last := -1
	for i, r := range rows {
		if validStrengths[r.StrengthState] {
			last = i
		}
	}
	return rows[:last+1]
}
