package pbp

import "time"

// Summary is the per-game digest published to streams, sockets and the
// archive.
type Summary struct {
	GameID           string           `json:"game_id"`
	Season           string           `json:"season"`
	GameDate         time.Time        `json:"game_date"`
	HomeTeam         string           `json:"home_team"`
	AwayTeam         string           `json:"away_team"`
	HomeScore        int              `json:"home_score"`
	AwayScore        int              `json:"away_score"`
	Events           int              `json:"events"`
	Located          int              `json:"located"`
	LastPeriod       int              `json:"last_period"`
	LastClock        string           `json:"last_clock"`
	CoordinateSource CoordinateSource `json:"coordinate_source"`
	Warning          string           `json:"game_warning,omitempty"`
	Live             bool             `json:"live"`
}

// Summarize digests a record. Row scores count goals before the row, so a
// record ending on a goal (live games) adds it here.
func Summarize(g *GameRecord) Summary {
	s := Summary{
		GameID:           g.GameID,
		Season:           g.Season,
		GameDate:         g.GameDate,
		HomeTeam:         g.HomeTeam,
		AwayTeam:         g.AwayTeam,
		Events:           len(g.Rows),
		CoordinateSource: g.CoordinateSource,
		Warning:          g.Warning,
		Live:             g.Live,
	}
	for _, r := range g.Rows {
		if r.HasCoords() {
			s.Located++
		}
	}
	if n := len(g.Rows); n > 0 {
		last := g.Rows[n-1]
		s.HomeScore, s.AwayScore = last.HomeScore, last.AwayScore
		s.LastPeriod, s.LastClock = last.Period, last.Clock
		if last.Type == TypeGoal && last.Period < 5 {
			switch last.EventTeam {
			case g.HomeTeam:
				s.HomeScore++
			case g.AwayTeam:
				s.AwayScore++
			}
		}
	}
	return s
}
