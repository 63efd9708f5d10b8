package store

import (
	"database/sql"
	"time"

	"github.com/fortuna/puckline/internal/pbp"
)

// GameRecordRow is one game_records row.
type GameRecordRow struct {
	GameID           string         `json:"game_id" db:"game_id"`
	Season           string         `json:"season" db:"season"`
	GameDate         sql.NullTime   `json:"game_date,omitempty" db:"game_date"`
	HomeTeam         string         `json:"home_team" db:"home_team"`
	AwayTeam         string         `json:"away_team" db:"away_team"`
	HomeTeamName     sql.NullString `json:"home_team_name,omitempty" db:"home_team_name"`
	AwayTeamName     sql.NullString `json:"away_team_name,omitempty" db:"away_team_name"`
	HomeScore        int            `json:"home_score" db:"home_score"`
	AwayScore        int            `json:"away_score" db:"away_score"`
	EventCount       int            `json:"event_count" db:"event_count"`
	LocatedCount     int            `json:"located_count" db:"located_count"`
	CoordinateSource string         `json:"coordinate_source" db:"coordinate_source"`
	Warning          sql.NullString `json:"game_warning,omitempty" db:"game_warning"`
	Live             bool           `json:"live" db:"live"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// NewGameRecordRow flattens a record's metadata for storage.
func NewGameRecordRow(rec *pbp.GameRecord) GameRecordRow {
	s := pbp.Summarize(rec)
	return GameRecordRow{
		GameID:           rec.GameID,
		Season:           rec.Season,
		GameDate:         sql.NullTime{Time: rec.GameDate, Valid: !rec.GameDate.IsZero()},
		HomeTeam:         rec.HomeTeam,
		AwayTeam:         rec.AwayTeam,
		HomeTeamName:     nullString(rec.HomeTeamName),
		AwayTeamName:     nullString(rec.AwayTeamName),
		HomeScore:        s.HomeScore,
		AwayScore:        s.AwayScore,
		EventCount:       s.Events,
		LocatedCount:     s.Located,
		CoordinateSource: string(rec.CoordinateSource),
		Warning:          nullString(rec.Warning),
		Live:             rec.Live,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
