// Package nhlapitest builds gamecenter play-by-play documents for tests.
package nhlapitest

import (
	jsoniter "github.com/json-iterator/go"
)

// Player is one rosterSpots entry.
type Player struct {
	ID    int
	First string
	Last  string
}

// Play is one entry of plays. A nil X or Y leaves the coordinate out.
type Play struct {
	Period   int
	Time     string
	Key      string // typeDescKey
	Code     int
	PlayerID int
	// Field is the details key carrying PlayerID, e.g. "shootingPlayerId".
	Field string
	X, Y  *int
}

// At returns pointers for a coordinate pair.
func At(x, y int) (*int, *int) {
	return &x, &y
}

// Feed renders a play-by-play document. gameType is 2 for regular season
// and 3 for playoffs.
func Feed(gameID, gameType int, home, away string, players []Player, plays []Play) []byte {
	spots := make([]map[string]any, 0, len(players))
	for _, p := range players {
		spots = append(spots, map[string]any{
			"playerId":  p.ID,
			"firstName": map[string]string{"default": p.First},
			"lastName":  map[string]string{"default": p.Last},
		})
	}
	items := make([]map[string]any, 0, len(plays))
	for i, p := range plays {
		details := map[string]any{}
		if p.Field != "" {
			details[p.Field] = p.PlayerID
		}
		if p.X != nil {
			details["xCoord"] = *p.X
		}
		if p.Y != nil {
			details["yCoord"] = *p.Y
		}
		items = append(items, map[string]any{
			"eventId":          i + 1,
			"periodDescriptor": map[string]any{"number": p.Period},
			"timeInPeriod":     p.Time,
			"typeDescKey":      p.Key,
			"typeCode":         p.Code,
			"details":          details,
		})
	}
	doc := map[string]any{
		"id":          gameID,
		"gameType":    gameType,
		"homeTeam":    map[string]string{"abbrev": home},
		"awayTeam":    map[string]string{"abbrev": away},
		"rosterSpots": spots,
		"plays":       items,
	}
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return out
}

// SamplePlayers is the dressed roster of the sample game.
var SamplePlayers = []Player{
	{8478010, "Brayden", "Point"},
	{8475167, "Victor", "Hedman"},
	{8476453, "Nikita", "Kucherov"},
	{8476883, "Andrei", "Vasilevskiy"},
	{8474564, "Steven", "Stamkos"},
	{8477932, "Aaron", "Ekblad"},
	{8477493, "Aleksander", "Barkov"},
	{8479314, "Matthew", "Tkachuk"},
	{8475683, "Sergei", "Bobrovsky"},
}

// SampleFeed is the coordinate feed for the reports sample game
// (Lightning at Panthers, 2023020001).
func SampleFeed() []byte {
	p := func(period int, clock, key string, id int, field string, x, y int) Play {
		px, py := At(x, y)
		return Play{Period: period, Time: clock, Key: key, PlayerID: id, Field: field, X: px, Y: py}
	}
	plays := []Play{
		{Period: 1, Time: "00:00", Key: "period-start"},
		p(1, "00:00", "faceoff", 8478010, "winningPlayerId", 0, 0),
		p(1, "05:00", "shot-on-goal", 8476453, "shootingPlayerId", 70, -5),
		p(1, "06:00", "hit", 8479314, "hittingPlayerId", -60, 30),
		p(1, "12:00", "goal", 8474564, "scoringPlayerId", 80, 2),
		p(1, "12:00", "faceoff", 8477493, "winningPlayerId", 0, 0),
		p(1, "15:00", "shot-on-goal", 8477493, "shootingPlayerId", -75, 10),
		{Period: 1, Time: "20:00", Key: "period-end"},
	}
	return Feed(2023020001, 2, "FLA", "TBL", SamplePlayers, plays)
}
