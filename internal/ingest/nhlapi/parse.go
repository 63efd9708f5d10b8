// Package nhlapi reads the NHL gamecenter JSON API: play-by-play
// coordinates for the reconciler and player landing pages for handedness.
package nhlapi

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/fortuna/puckline/internal/names"
	"github.com/fortuna/puckline/internal/pbp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type localized struct {
	Default string `json:"default"`
}

type rosterSpot struct {
	PlayerID      int       `json:"playerId"`
	TeamID        int       `json:"teamId"`
	FirstName     localized `json:"firstName"`
	LastName      localized `json:"lastName"`
	SweaterNumber int       `json:"sweaterNumber"`
	PositionCode  string    `json:"positionCode"`
}

type playDetails struct {
	XCoord              *float64 `json:"xCoord"`
	YCoord              *float64 `json:"yCoord"`
	ShootingPlayerID    int      `json:"shootingPlayerId"`
	ScoringPlayerID     int      `json:"scoringPlayerId"`
	HittingPlayerID     int      `json:"hittingPlayerId"`
	BlockingPlayerID    int      `json:"blockingPlayerId"`
	CommittedByPlayerID int      `json:"committedByPlayerId"`
	TakingPlayerID      int      `json:"takingPlayerId"`
	WinningPlayerID     int      `json:"winningPlayerId"`
	PlayerID            int      `json:"playerId"`
	DescKey             string   `json:"descKey"`
}

type play struct {
	EventID          int `json:"eventId"`
	PeriodDescriptor struct {
		Number     int    `json:"number"`
		PeriodType string `json:"periodType"`
	} `json:"periodDescriptor"`
	TimeInPeriod string      `json:"timeInPeriod"`
	TypeCode     int         `json:"typeCode"`
	TypeDescKey  string      `json:"typeDescKey"`
	Details      playDetails `json:"details"`
}

type team struct {
	ID     int    `json:"id"`
	Abbrev string `json:"abbrev"`
}

type gameFeed struct {
	ID          int          `json:"id"`
	GameType    int          `json:"gameType"`
	HomeTeam    team         `json:"homeTeam"`
	AwayTeam    team         `json:"awayTeam"`
	RosterSpots []rosterSpot `json:"rosterSpots"`
	Plays       *[]play      `json:"plays"`
}

// PlayByPlay is the coordinate table for one game.
type PlayByPlay struct {
	GameID   int
	HomeTeam string
	AwayTeam string
	Rows     []pbp.CoordRow
	// Roster maps normalized names to API player ids.
	Roster map[string]int
	// MissingCoords counts shot-class and other located plays that came
	// without coordinates and were dropped.
	MissingCoords int
}

// Validate fails when located plays were dropped for lack of coordinates,
// which leaves the feed unfit to be the only coordinate source.
func (p *PlayByPlay) Validate() error {
	if p.MissingCoords > 0 {
		return fmt.Errorf("%d located plays without coordinates: %w", p.MissingCoords, pbp.ErrStructural)
	}
	return nil
}

var eventTypes = map[string]string{
	"shot-on-goal": pbp.TypeShot,
	"shot-blocked": pbp.TypeBlock,
	"shot-missed":  pbp.TypeMiss,
	"blocked-shot": pbp.TypeBlock,
	"missed-shot":  pbp.TypeMiss,
	"goal":         pbp.TypeGoal,
	"hit":          pbp.TypeHit,
	"giveaway":     pbp.TypeGive,
	"takeaway":     pbp.TypeTake,
	"faceoff":      pbp.TypeFaceoff,
	"penalty":      pbp.TypePenalty,
	"stoppage":     pbp.TypeStop,
	"period-start": pbp.TypePStart,
	"period-end":   pbp.TypePEnd,
	"game-end":     pbp.TypeGEnd,
}

var typeCodes = map[int]string{
	502: pbp.TypeGoal,
	503: pbp.TypeHit,
	504: pbp.TypeGive,
	505: pbp.TypeShot,
	506: pbp.TypeBlock,
	507: pbp.TypeMiss,
	508: pbp.TypeTake,
}

// TypeUnknown is returned for plays the type map cannot place.
const TypeUnknown = "UNKNOWN"

func mapEventType(desc string, code int) string {
	d := strings.ToLower(desc)
	if t, ok := eventTypes[d]; ok {
		return t
	}
	if d != "" {
		switch {
		case strings.Contains(d, "shot") && strings.Contains(d, "goal"):
			return pbp.TypeShot
		case strings.Contains(d, "shot") && strings.Contains(d, "block"):
			return pbp.TypeBlock
		case strings.Contains(d, "shot") && strings.Contains(d, "miss"):
			return pbp.TypeMiss
		case strings.Contains(d, "goal"):
			return pbp.TypeGoal
		case strings.Contains(d, "hit"):
			return pbp.TypeHit
		case strings.Contains(d, "give"):
			return pbp.TypeGive
		case strings.Contains(d, "take"):
			return pbp.TypeTake
		case strings.Contains(d, "faceoff"), strings.Contains(d, "face-off"):
			return pbp.TypeFaceoff
		case strings.Contains(d, "penalty"):
			return pbp.TypePenalty
		case strings.Contains(d, "stop"):
			return pbp.TypeStop
		}
	}
	if t, ok := typeCodes[code]; ok {
		return t
	}
	return TypeUnknown
}

// primaryPlayer picks the id that the HTML log lists as player 1. For a
// block that is the shooter, not the blocker.
func primaryPlayer(d playDetails, eventType string) int {
	var candidates []int
	switch eventType {
	case pbp.TypeShot:
		candidates = []int{d.ShootingPlayerID, d.ScoringPlayerID}
	case pbp.TypeGoal:
		candidates = []int{d.ScoringPlayerID, d.ShootingPlayerID}
	case pbp.TypeHit:
		candidates = []int{d.HittingPlayerID}
	case pbp.TypeBlock:
		candidates = []int{d.ShootingPlayerID, d.BlockingPlayerID}
	case pbp.TypeGive:
		candidates = []int{d.PlayerID, d.CommittedByPlayerID}
	case pbp.TypeTake:
		candidates = []int{d.PlayerID, d.TakingPlayerID}
	case pbp.TypeMiss:
		candidates = []int{d.ShootingPlayerID}
	case pbp.TypeFaceoff:
		candidates = []int{d.WinningPlayerID}
	case pbp.TypePenalty:
		candidates = []int{d.CommittedByPlayerID}
	}
	candidates = append(candidates, d.PlayerID)
	for _, id := range candidates {
		if id != 0 {
			return id
		}
	}
	return 0
}

// ParsePlayByPlay decodes a gamecenter play-by-play document.
func ParsePlayByPlay(body []byte) (*PlayByPlay, error) {
	return parsePlayByPlay(body, names.Default())
}

func parsePlayByPlay(body []byte, table *names.Table) (*PlayByPlay, error) {
	var feed gameFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode play-by-play: %v: %w", err, pbp.ErrStructural)
	}
	if feed.Plays == nil {
		return nil, fmt.Errorf("play-by-play has no plays: %w", pbp.ErrStructural)
	}

	out := &PlayByPlay{
		GameID:   feed.ID,
		HomeTeam: feed.HomeTeam.Abbrev,
		AwayTeam: feed.AwayTeam.Abbrev,
		Roster:   make(map[string]int, len(feed.RosterSpots)),
	}
	playerNames := make(map[int]string, len(feed.RosterSpots))
	for _, spot := range feed.RosterSpots {
		name, ok := table.ForPlayerID(spot.PlayerID)
		if !ok {
			name = table.Normalize(spot.FirstName.Default + " " + spot.LastName.Default)
		}
		if name == "" {
			continue
		}
		playerNames[spot.PlayerID] = name
		out.Roster[name] = spot.PlayerID
	}

	playoff := feed.GameType == 3
	for _, p := range *feed.Plays {
		eventType := mapEventType(p.TypeDescKey, p.TypeCode)
		period := p.PeriodDescriptor.Number
		if period == 0 {
			period = 1
		}
		secs, err := pbp.ParseClock(p.TimeInPeriod)
		if err != nil {
			secs = 0
		}

		x, y := p.Details.XCoord, p.Details.YCoord
		if x == nil || y == nil {
			if eventType != pbp.TypeFaceoff {
				if pbp.IsFenwick(eventType) {
					out.MissingCoords++
				}
				continue
			}
			zero := 0.0
			if x == nil {
				x = &zero
			}
			if y == nil {
				y = &zero
			}
		}

		id := primaryPlayer(p.Details, eventType)
		name := playerNames[id]
		if id == 0 || name == "" {
			continue
		}

		cx, cy := pbp.ClipCoords(int(*x), int(*y))
		out.Rows = append(out.Rows, pbp.CoordRow{
			Player:      name,
			PlayerID:    id,
			Type:        eventType,
			GameSeconds: pbp.GameSeconds(period, secs, playoff),
			Period:      period,
			X:           cx,
			Y:           cy,
			HasXY:       true,
			Source:      pbp.SourceAPI,
			Description: p.Details.DescKey,
			Priority:    pbp.Priority(eventType),
		})
	}

	pbp.AssignVersions(out.Rows)
	return out, nil
}
