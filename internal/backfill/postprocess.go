package backfill

import (
	"regexp"
	"strconv"

	"github.com/fortuna/puckline/internal/ingest/reports"
	"github.com/fortuna/puckline/internal/pbp"
)

// Two players share the name ELIAS PETTERSSON; the defenceman wears 25.
const (
	petterssonName    = "ELIAS PETTERSSON"
	petterssonDefence = "ELIAS PETTERSSON(D)"
	petterssonNumber  = 25
)

var (
	petterssonFirst  = regexp.MustCompile(`#(\d+) PETTERSSON`)
	petterssonScorer = regexp.MustCompile(`: #(\d+) PETTERSSON`)
	petterssonVAN    = regexp.MustCompile(`VAN #(\d+) PETTERSSON`)
	petterssonThird  = regexp.MustCompile(`#(\d+) PETTERSSON(?:\s|$)`)
)

// PostProcess normalizes a batch of records in place. It runs on every
// batch, complete or cancelled.
func PostProcess(records []*pbp.GameRecord) {
	for _, rec := range records {
		if rec == nil {
			continue
		}
		onIce := rec.HasOnIce()
		for i := range rec.Rows {
			row := &rec.Rows[i]
			fillSentinels(row)
			if !onIce {
				row.HomeSkaters = reports.SkatersFromRaw(row.HomeSkatersRaw)
				row.AwaySkaters = reports.SkatersFromRaw(row.AwaySkatersRaw)
			}
			fixPettersson(&row.Event)
		}
	}
}

func fillSentinels(row *pbp.Row) {
	for i := range row.HomeOn {
		if row.HomeOn[i] == "" {
			row.HomeOn[i] = pbp.Blank
		}
		if row.AwayOn[i] == "" {
			row.AwayOn[i] = pbp.Blank
		}
	}
	if row.HomeGoalie == "" {
		row.HomeGoalie = pbp.Blank
	}
	if row.AwayGoalie == "" {
		row.AwayGoalie = pbp.Blank
	}
}

// fixPettersson renames the defenceman wherever the description credits
// number 25.
func fixPettersson(ev *pbp.Event) {
	if ev.Player1 == petterssonName && numberIs(petterssonFirst, ev.Description) {
		ev.Player1 = petterssonDefence
	}
	if ev.Player2 == petterssonName {
		re := petterssonVAN
		if ev.Type == pbp.TypeGoal {
			re = petterssonScorer
		}
		if numberIs(re, ev.Description) {
			ev.Player2 = petterssonDefence
		}
	}
	if ev.Player3 == petterssonName && numberIs(petterssonThird, ev.Description) {
		ev.Player3 = petterssonDefence
	}
}

func numberIs(re *regexp.Regexp, description string) bool {
	m := re.FindStringSubmatch(description)
	if m == nil {
		return false
	}
	n, err := strconv.Atoi(m[1])
	return err == nil && n == petterssonNumber
}
