// Package espntest builds ESPN scoreboard and play-by-play pages for tests.
package espntest

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Card is one scoreboard game card. Names are short display names such as
// "Lightning".
type Card struct {
	ID   string
	Away string
	Home string
}

// Scoreboard renders a scoreboard page.
func Scoreboard(cards ...Card) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div class="PageLayout">`)
	b.WriteString(`<section class="Card gameModules" id="gameId"></section>`)
	for _, c := range cards {
		fmt.Fprintf(&b, `<section class="Scoreboard bg-clr-white flex flex-auto justify-between" id="%s/lightning-panthers">`, c.ID)
		b.WriteString(`<ul class="ScoreboardScoreCell__Competitors">`)
		for _, team := range []string{c.Away, c.Home} {
			fmt.Fprintf(&b, `<li><div class="ScoreCell__TeamName ScoreCell__TeamName--shortDisplayName db">%s</div>`, team)
			fmt.Fprintf(&b, `<div class="ScoreCell__TeamName ScoreCell__TeamName--displayName">%s Full</div></li>`, team)
		}
		b.WriteString(`</ul></section>`)
	}
	b.WriteString(`</div></body></html>`)
	return []byte(b.String())
}

// Play is one ESPN play. A nil X leaves the coordinate out; an empty
// Athlete leaves the player out.
type Play struct {
	ID      string
	Period  int
	Clock   string
	Type    string // type.txt, e.g. "Shot"
	Text    string
	Athlete string
	X, Y    *int
}

// At returns pointers for a coordinate pair.
func At(x, y int) (*int, *int) {
	return &x, &y
}

// PlayByPlay renders a play-by-play page with the clocks grouped by period
// the way ESPN embeds them. st is the trailing game-state marker (1, 2 or 3).
func PlayByPlay(st int, plays ...Play) []byte {
	groups := map[int][]map[string]any{}
	maxPeriod := 0
	items := make([]map[string]any, 0, len(plays))
	for _, p := range plays {
		groups[p.Period] = append(groups[p.Period], map[string]any{
			"id":    p.ID,
			"clock": map[string]string{"displayValue": p.Clock},
		})
		maxPeriod = max(maxPeriod, p.Period)

		item := map[string]any{
			"id":     p.ID,
			"period": map[string]int{"number": p.Period},
			"type":   map[string]string{"txt": p.Type},
			"text":   p.Text,
		}
		if p.X != nil {
			item["coordinate"] = map[string]int{"x": *p.X, "y": *p.Y}
		}
		if p.Athlete != "" {
			item["athlete"] = map[string]string{"name": p.Athlete}
		}
		items = append(items, item)
	}
	grps := make([][]map[string]any, 0, maxPeriod)
	for period := 1; period <= maxPeriod; period++ {
		grps = append(grps, groups[period])
	}

	enc := jsoniter.ConfigCompatibleWithStandardLibrary
	g, err := enc.Marshal(grps)
	if err != nil {
		panic(err)
	}
	pl, err := enc.Marshal(items)
	if err != nil {
		panic(err)
	}
	return []byte(fmt.Sprintf(
		`<html><head><script>window['__espnfitt__']={"page":{"content":{"gamepackage":{"pbp":{"playGrps":%s,"tms":{"away":{"abbrev":"TB"}}},"shtChrt":{"plays":%s,"st":%d}}}}};</script></head><body></body></html>`,
		g, pl, st))
}

// SamplePlayByPlay mirrors the reports sample game (Lightning at Panthers).
func SamplePlayByPlay() []byte {
	p := func(id string, clock, typ, athlete string, x, y int) Play {
		px, py := At(x, y)
		return Play{ID: id, Period: 1, Clock: clock, Type: typ, Athlete: athlete, X: px, Y: py}
	}
	fac := func(id, clock, athlete string) Play {
		return Play{ID: id, Period: 1, Clock: clock, Type: "Face Off", Athlete: athlete}
	}
	return PlayByPlay(2,
		Play{ID: "100", Period: 1, Clock: "0:00", Type: "Period Start"},
		fac("101", "0:00", "Brayden Point"),
		p("102", "5:00", "Shot", "Nikita Kucherov", 71, -4),
		p("103", "6:00", "Hit", "Matthew Tkachuk", -61, 31),
		p("104", "12:00", "Goal", "Steven Stamkos", 81, 3),
		fac("105", "12:00", "Aleksander Barkov"),
		p("106", "15:00", "Shot", "Aleksander Barkov", -74, 11),
	)
}
