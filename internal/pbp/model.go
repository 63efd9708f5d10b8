// Package pbp holds the play-by-play types shared by the report parsers,
// the coordinate providers, and the reconciler.
package pbp

import (
	"strings"
	"time"
)

// Blank is the sentinel the reports use for an empty cell. Empty on-ice
// slots, absent goalies and team-less events carry it instead of "".
const Blank = "\u00a0"

// BenchPlayer stands in for team-level participants ("TEAM", "bench").
const BenchPlayer = "BENCH"

// Event types produced by the parsers. The HTML report uses a few more
// (PGSTR, ANTHEM, EISTR ...); those pass through untouched.
const (
	TypeShot    = "SHOT"
	TypeGoal    = "GOAL"
	TypeMiss    = "MISS"
	TypeBlock   = "BLOCK"
	TypeHit     = "HIT"
	TypeGive    = "GIVE"
	TypeTake    = "TAKE"
	TypeFaceoff = "FAC"
	TypePenalty = "PENL"
	TypeStop    = "STOP"
	TypeDelPen  = "DELPEN"
	TypeChange  = "CHANGE"
	TypePStart  = "PSTR"
	TypePEnd    = "PEND"
	TypeGEnd    = "GEND"
	TypeSOC     = "SOC"
)

// CoordinateSource tags where a row's x/y came from.
type CoordinateSource string

const (
	SourceAPI    CoordinateSource = "api"
	SourceESPN   CoordinateSource = "espn"
	SourceHybrid CoordinateSource = "hybrid"
	SourceNone   CoordinateSource = "none"
)

// Venue is home or away.
type Venue string

const (
	Home Venue = "home"
	Away Venue = "away"
)

// Event is one row of the HTML event log before coordinates are attached.
type Event struct {
	EventIndex     int    `json:"event_index"`
	Period         int    `json:"period"`
	Clock          string `json:"clock"`
	GameSeconds    int    `json:"game_seconds"`
	Type           string `json:"event_type"`
	Description    string `json:"description"`
	Strength       string `json:"strength,omitempty"`
	EventTeam      string `json:"event_team"`
	Player1        string `json:"event_player_1,omitempty"`
	Player2        string `json:"event_player_2,omitempty"`
	Player3        string `json:"event_player_3,omitempty"`
	AwaySkatersRaw string `json:"-"`
	HomeSkatersRaw string `json:"-"`
	Priority       int    `json:"-"`
	Version        int    `json:"version"`

	CoordsX          *int             `json:"coords_x,omitempty"`
	CoordsY          *int             `json:"coords_y,omitempty"`
	CoordinateSource CoordinateSource `json:"coordinate_source,omitempty"`
}

// HasCoords reports whether both coordinates are present.
func (e *Event) HasCoords() bool {
	return e.CoordsX != nil && e.CoordsY != nil
}

// SetCoords attaches coordinates and their source.
func (e *Event) SetCoords(x, y int, source CoordinateSource) {
	e.CoordsX = &x
	e.CoordsY = &y
	e.CoordinateSource = source
}

// CoordRow is the common output of both coordinate providers.
type CoordRow struct {
	Player      string           `json:"event_player_1"`
	PlayerID    int              `json:"player_id,omitempty"`
	Type        string           `json:"event"`
	GameSeconds int              `json:"game_seconds"`
	Period      int              `json:"period"`
	Version     int              `json:"version"`
	X           int              `json:"coords_x"`
	Y           int              `json:"coords_y"`
	HasXY       bool             `json:"-"`
	Source      CoordinateSource `json:"coordinate_source"`
	Description string           `json:"description,omitempty"`
	Priority    int              `json:"-"`
}

// RosterEntry is one dressed or scratched player.
type RosterEntry struct {
	Name     string `json:"name"`
	Number   string `json:"number"`
	Position string `json:"position"`
	Venue    Venue  `json:"venue"`
	TeamName string `json:"team_name"`
	Status   string `json:"status"`
}

// Roster statuses.
const (
	StatusPlayer  = "player"
	StatusScratch = "scratch"
)

// IsGoalie reports whether the entry is a dressed goaltender.
func (r RosterEntry) IsGoalie() bool {
	return r.Position == "G" && r.Status == StatusPlayer
}

// Shift is one continuous ice-time interval.
type Shift struct {
	Venue       Venue  `json:"venue"`
	Team        string `json:"team"`
	Player      string `json:"player"`
	Number      string `json:"number"`
	ShiftNumber int    `json:"shift_number"`
	Period      int    `json:"period"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Duration    string `json:"duration"`
	Goalie      bool   `json:"goalie"`
}

// Change is one "who jumped on/off at this instant" row for a team.
type Change struct {
	Team        string `json:"team"`
	Venue       Venue  `json:"venue"`
	Period      int    `json:"period"`
	Clock       string `json:"clock"`
	GameSeconds int    `json:"game_seconds"`
	On          string `json:"on,omitempty"`
	OnNumbers   string `json:"on_numbers,omitempty"`
	NumberOn    int    `json:"number_on"`
	Off         string `json:"off,omitempty"`
	OffNumbers  string `json:"off_numbers,omitempty"`
	NumberOff   int    `json:"number_off"`
}

// Row is one fully reconciled event.
type Row struct {
	Event

	EventDetail string `json:"event_detail"`
	EventZone   string `json:"event_zone"`
	EventLength int    `json:"event_length"`

	NumOn      int    `json:"num_on"`
	NumOff     int    `json:"num_off"`
	PlayersOn  string `json:"players_on"`
	PlayersOff string `json:"players_off"`

	HomeOn        [9]string `json:"home_on"`
	AwayOn        [9]string `json:"away_on"`
	HomeGoalie    string    `json:"home_goalie"`
	AwayGoalie    string    `json:"away_goalie"`
	HomeSkaters   int       `json:"home_skaters"`
	AwaySkaters   int       `json:"away_skaters"`
	HomeScore     int       `json:"home_score"`
	AwayScore     int       `json:"away_score"`
	ScoreState    string    `json:"game_score_state"`
	StrengthState string    `json:"game_strength_state"`
}

// GameRecord is the finalized table for one game.
type GameRecord struct {
	GameID           string           `json:"game_id"`
	Season           string           `json:"season"`
	GameDate         time.Time        `json:"game_date"`
	HomeTeam         string           `json:"home_team"`
	AwayTeam         string           `json:"away_team"`
	HomeTeamName     string           `json:"home_team_name"`
	AwayTeamName     string           `json:"away_team_name"`
	CoordinateSource CoordinateSource `json:"coordinate_source"`
	Warning          string           `json:"game_warning,omitempty"`
	Live             bool             `json:"live"`
	Rows             []Row            `json:"rows"`
}

// Record warnings. A record can carry both, space separated.
const (
	WarningNoShiftData   = "NO SHIFT DATA."
	WarningNoCoordinates = "NO COORDINATES."
)

// HasOnIce reports whether on-ice columns were populated for the record.
func (g *GameRecord) HasOnIce() bool {
	return !strings.Contains(g.Warning, WarningNoShiftData)
}

// AddWarning appends w unless the record already carries it.
func (g *GameRecord) AddWarning(w string) {
	switch {
	case strings.Contains(g.Warning, w):
	case g.Warning == "":
		g.Warning = w
	default:
		g.Warning += " " + w
	}
}
