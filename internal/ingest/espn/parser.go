// Package espn scrapes ESPN's NHL pages: the daily scoreboard, to find
// ESPN's id for a game, and the play-by-play page, whose embedded JSON
// carries shot locations when the NHL API has none.
package espn

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/encoding/charmap"

	"github.com/fortuna/puckline/internal/names"
	"github.com/fortuna/puckline/internal/pbp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	clocksStart = `"playGrps":`
	clocksEnd   = `,"tms"`
	playsStart  = `plays":`
)

// The plays array is followed by one of these, depending on game state.
var playsEnd = []string{`,"st":1`, `,"st":2`, `,"st":3`}

var eventTypes = map[string]string{
	"Face Off": pbp.TypeFaceoff,
	"Goal":     pbp.TypeGoal,
	"Giveaway": pbp.TypeGive,
	"Penalty":  pbp.TypePenalty,
	"Missed":   pbp.TypeMiss,
	"Shot":     pbp.TypeShot,
	"Takeaway": pbp.TypeTake,
	"Blocked":  pbp.TypeBlock,
	"Hit":      pbp.TypeHit,
}

// between returns the text after the first start marker, cut at the
// earliest of the end markers.
func between(page, start string, ends ...string) (string, bool) {
	_, rest, ok := strings.Cut(page, start)
	if !ok {
		return "", false
	}
	for _, end := range ends {
		if i := strings.Index(rest, end); i >= 0 {
			rest = rest[:i]
		}
	}
	return rest, true
}

// ParsePlayByPlay extracts coordinate rows from a play-by-play page. Plays
// are joined to their clocks by id; plays without a location or a player
// are dropped, except faceoffs, which sit at center ice.
func ParsePlayByPlay(body []byte, playoff bool) ([]pbp.CoordRow, error) {
	return parsePlayByPlay(body, playoff, names.Default())
}

func parsePlayByPlay(body []byte, playoff bool, table *names.Table) ([]pbp.CoordRow, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	page := string(decoded)

	rawClocks, ok := between(page, clocksStart, clocksEnd)
	if !ok {
		return nil, fmt.Errorf("no play groups on page: %w", pbp.ErrStructural)
	}
	var groups [][]clockEntry
	if err := json.Unmarshal([]byte(rawClocks), &groups); err != nil {
		return nil, fmt.Errorf("decode play groups: %v: %w", err, pbp.ErrStructural)
	}
	clocks := make(map[flexID]string)
	for _, g := range groups {
		for _, c := range g {
			if c.Clock != nil && c.Clock.DisplayValue != "" {
				clocks[c.ID] = c.Clock.DisplayValue
			}
		}
	}

	rawPlays, ok := between(page, playsStart, playsEnd...)
	if !ok {
		return nil, fmt.Errorf("no plays on page: %w", pbp.ErrStructural)
	}
	var plays []espnPlay
	if err := json.Unmarshal([]byte(rawPlays), &plays); err != nil {
		return nil, fmt.Errorf("decode plays: %v: %w", err, pbp.ErrStructural)
	}

	var rows []pbp.CoordRow
	for _, p := range plays {
		clock, ok := clocks[p.ID]
		if !ok {
			continue
		}
		secs, err := pbp.ParseClock(clock)
		if err != nil {
			continue
		}

		var x, y *float64
		if p.Coordinate != nil {
			x, y = p.Coordinate.X, p.Coordinate.Y
		}
		if x == nil && y == nil && p.Type.Txt == "Face Off" {
			zero := 0.0
			x, y = &zero, &zero
		}
		if x == nil || y == nil || p.Athlete == nil || p.Athlete.Name == "" {
			continue
		}

		eventType, ok := eventTypes[p.Type.Txt]
		if !ok {
			eventType = p.Type.Txt
		}
		cx, cy := pbp.ClipCoords(int(*x), int(*y))
		rows = append(rows, pbp.CoordRow{
			Player:      table.Normalize(p.Athlete.Name),
			Type:        eventType,
			GameSeconds: pbp.GameSeconds(p.Period.Number, secs, playoff),
			Period:      p.Period.Number,
			X:           cx,
			Y:           cy,
			HasXY:       true,
			Source:      pbp.SourceESPN,
			Description: p.Text,
			Priority:    pbp.Priority(eventType),
		})
	}

	pbp.AssignVersions(rows)
	return rows, nil
}

const (
	scoreboardClass = "Scoreboard bg-clr-white flex flex-auto justify-between"
	teamNameClass   = "ScoreCell__TeamName ScoreCell__TeamName--shortDisplayName db"
)

// ParseScoreboard lists the game cards on a scoreboard page. Team names the
// nickname table cannot place map to TeamUnknown.
func ParseScoreboard(body []byte) ([]ScoreboardGame, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var games []ScoreboardGame
	d.Find("section").Each(func(_ int, s *goquery.Selection) {
		if class, _ := s.Attr("class"); class != scoreboardClass {
			return
		}
		id, ok := s.Attr("id")
		if !ok || id == "gameId" {
			return
		}
		id, _, _ = strings.Cut(id, "/")

		var teams []string
		s.Find("div").Each(func(_ int, div *goquery.Selection) {
			if class, _ := div.Attr("class"); class == teamNameClass {
				teams = append(teams, strings.ToUpper(strings.TrimSpace(div.Contents().First().Text())))
			}
		})
		if len(teams) < 2 {
			return
		}
		games = append(games, ScoreboardGame{
			ESPNID: id,
			Away:   TeamAbbreviation(teams[0]),
			Home:   TeamAbbreviation(teams[1]),
		})
	})
	return games, nil
}
