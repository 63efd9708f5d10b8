package pbp

import (
	"strconv"
)

// Columns is the header of the flat output table.
func Columns() []string {
	cols := []string{
		"game_id", "season", "game_date", "home_team", "away_team",
		"event_index", "period", "clock", "game_seconds", "event_type",
		"description", "event_detail", "strength", "event_zone", "event_team",
		"event_player_1", "event_player_2", "event_player_3", "event_length",
		"coords_x", "coords_y", "coordinate_source",
		"num_on", "players_on", "num_off", "players_off",
	}
	for i := 1; i <= 9; i++ {
		cols = append(cols, "home_on_"+strconv.Itoa(i))
	}
	for i := 1; i <= 9; i++ {
		cols = append(cols, "away_on_"+strconv.Itoa(i))
	}
	return append(cols,
		"home_goalie", "away_goalie", "home_skaters", "away_skaters",
		"home_score", "away_score", "game_score_state", "game_strength_state",
		"game_warning",
	)
}

// Table flattens the record into rows matching Columns.
func (g *GameRecord) Table() [][]string {
	date := ""
	if !g.GameDate.IsZero() {
		date = g.GameDate.Format("2006-01-02")
	}
	out := make([][]string, 0, len(g.Rows))
	for i := range g.Rows {
		r := &g.Rows[i]
		row := []string{
			g.GameID, g.Season, date, g.HomeTeam, g.AwayTeam,
			strconv.Itoa(r.EventIndex), strconv.Itoa(r.Period), r.Clock, strconv.Itoa(r.GameSeconds), r.Type,
			r.Description, r.EventDetail, r.Strength, r.EventZone, r.EventTeam,
			r.Player1, r.Player2, r.Player3, strconv.Itoa(r.EventLength),
			optInt(r.CoordsX), optInt(r.CoordsY), string(r.CoordinateSource),
			strconv.Itoa(r.NumOn), r.PlayersOn, strconv.Itoa(r.NumOff), r.PlayersOff,
		}
		row = append(row, r.HomeOn[:]...)
		row = append(row, r.AwayOn[:]...)
		row = append(row,
			r.HomeGoalie, r.AwayGoalie, strconv.Itoa(r.HomeSkaters), strconv.Itoa(r.AwaySkaters),
			strconv.Itoa(r.HomeScore), strconv.Itoa(r.AwayScore), r.ScoreState, r.StrengthState,
			g.Warning,
		)
		out = append(out, row)
	}
	return out
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
