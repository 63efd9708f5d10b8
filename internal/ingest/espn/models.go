package espn

import (
	"bytes"

	"github.com/fortuna/puckline/internal/pbp"
)

// ScoreboardGame is one game card on the ESPN scoreboard, with both teams
// already mapped to NHL abbreviations.
type ScoreboardGame struct {
	ESPNID string
	Away   string
	Home   string
}

// flexID accepts ids that ESPN sends as either JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	*f = flexID(bytes.Trim(b, `"`))
	return nil
}

type clockEntry struct {
	ID    flexID `json:"id"`
	Clock *struct {
		DisplayValue string `json:"displayValue"`
	} `json:"clock"`
}

type coordinate struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type espnPlay struct {
	ID     flexID `json:"id"`
	Period struct {
		Number int `json:"number"`
	} `json:"period"`
	Type struct {
		Txt string `json:"txt"`
	} `json:"type"`
	Text       string      `json:"text"`
	Coordinate *coordinate `json:"coordinate"`
	Athlete    *struct {
		Name string `json:"name"`
	} `json:"athlete"`
}

// PlayByPlay is ESPN's coordinate table for one game.
type PlayByPlay struct {
	ESPNID string
	Rows   []pbp.CoordRow
}
