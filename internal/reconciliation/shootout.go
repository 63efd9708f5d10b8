package reconciliation

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/fortuna/puckline/internal/pbp"
)

const shootoutPeriod = 5

var nonDigits = regexp.MustCompile(`\D+`)

// rawGoalie finds the dressed goalie whose sweater appears in a raw on-ice
// cell such as "21C77D88G".
func (g *game) rawGoalie(v pbp.Venue, raw string) string {
	numbers := strings.Fields(nonDigits.ReplaceAllString(raw, " "))
	for _, p := range g.dressed[v] {
		if p.IsGoalie() && slices.Contains(numbers, p.Number) {
			return p.Name
		}
	}
	return ""
}

// shootout rebuilds the on-ice state of a regular season shootout, where
// shift reports are meaningless: each side has its goalie plus the shooter
// of the attempt. The team with more shootout goals is credited one goal
// from the end of the period onward.
func (g *game) shootout(rows []pbp.Row) {
	homeGoalie, awayGoalie := pbp.Blank, pbp.Blank
	goals := map[string]int{}
	end := -1

	for i := range rows {
		r := &rows[i]
		if r.Period != shootoutPeriod {
			continue
		}
		if name := g.rawGoalie(pbp.Home, r.HomeSkatersRaw); name != "" {
			homeGoalie = name
		}
		if name := g.rawGoalie(pbp.Away, r.AwaySkatersRaw); name != "" {
			awayGoalie = name
		}

		r.HomeOn, r.AwayOn = blankSlots(), blankSlots()
		r.HomeOn[0], r.AwayOn[0] = homeGoalie, awayGoalie
		if r.Player1 != "" {
			switch r.EventTeam {
			case g.home:
				r.HomeOn[1] = r.Player1
			case g.away:
				r.AwayOn[1] = r.Player1
			}
		}
		r.HomeGoalie, r.AwayGoalie = homeGoalie, awayGoalie
		r.HomeSkaters = occupied(r.HomeOn)
		if homeGoalie != pbp.Blank {
			r.HomeSkaters--
		}
		r.AwaySkaters = occupied(r.AwayOn)
		if awayGoalie != pbp.Blank {
			r.AwaySkaters--
		}
		r.StrengthState = strengthState(r.HomeSkaters, r.HomeGoalie, r.AwaySkaters, r.AwayGoalie)

		if r.Type == pbp.TypeGoal {
			goals[r.EventTeam]++
		}
		if r.Type == pbp.TypePEnd && end == -1 {
			end = i
		}
	}
	if end == -1 || len(goals) == 0 {
		return
	}

	teams := make([]string, 0, len(goals))
	for t := range goals {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool {
		if goals[teams[i]] != goals[teams[j]] {
			return goals[teams[i]] > goals[teams[j]]
		}
		return teams[i] > teams[j]
	})
	winner := teams[0]

	for i := end; i < len(rows); i++ {
		switch winner {
		case g.home:
			rows[i].HomeScore++
		case g.away:
			rows[i].AwayScore++
		default:
			continue
		}
		rows[i].ScoreState = scoreState(rows[i].HomeScore, rows[i].AwayScore)
	}
}
