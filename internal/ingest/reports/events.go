package reports

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/puckline/internal/pbp"
)

var (
	playerNumber = regexp.MustCompile(`[#-]\s*(\d+)`)
	matchOrGame  = regexp.MustCompile(`Match|Game`)
	capitals     = regexp.MustCompile(`[A-Z]`)
)

// Report dates look like "Saturday, October 14, 2023".
var dateLayouts = []string{
	"Monday, January 2, 2006",
	"Monday, January 02, 2006",
	"January 2, 2006",
}

// EventLog is the typed PL report for one game.
type EventLog struct {
	GameID       string
	Season       string
	GameDate     time.Time
	HomeTeam     string
	AwayTeam     string
	HomeTeamName string
	AwayTeamName string
	Playoff      bool
	Events       []pbp.Event
	Roster       *Roster
}

// ParseEvents decodes an event log and resolves its participants through
// roster. Events come back in report order with game seconds, priority and
// version populated.
func ParseEvents(doc []byte, roster *Roster, gameID string) (*EventLog, error) {
	season, err := pbp.Season(gameID)
	if err != nil {
		return nil, err
	}
	d, err := parseLatin1(doc)
	if err != nil {
		return nil, err
	}

	cells := texts(d.Find(`td[class*="bborder"]`))
	rows := len(cells) / 8
	if rows == 0 {
		return nil, fmt.Errorf("event log has no rows: %w", pbp.ErrStructural)
	}

	hasClock := false
	for i := 0; i < rows; i++ {
		if strings.Contains(cells[i*8+3], ":") {
			hasClock = true
			break
		}
	}
	if !hasClock {
		return nil, fmt.Errorf("event log has no clock column: %w", pbp.ErrStructural)
	}

	el := &EventLog{
		GameID:  gameID,
		Season:  season,
		Playoff: pbp.IsPlayoff(gameID),
		Roster:  roster,
	}
	el.AwayTeam = firstToken(cells[6])
	el.HomeTeam = firstToken(cells[7])
	el.readHeader(d)

	teamNumbers := map[string]pbp.RosterEntry{}
	if roster != nil {
		teamNumbers = roster.TeamNumbers(el.HomeTeam, el.AwayTeam)
	}

	for i := 0; i < rows; i++ {
		row := cells[i*8 : i*8+8]
		if clean(row[1]) == "Per" {
			continue
		}
		ev, err := el.parseRow(row, teamNumbers)
		if err != nil {
			return nil, err
		}
		if !el.Playoff && ev.GameSeconds >= pbp.RegularSeasonCutoff {
			continue
		}
		el.Events = append(el.Events, ev)
	}
	if len(el.Events) == 0 {
		return nil, fmt.Errorf("event log has no events: %w", pbp.ErrStructural)
	}

	el.assignBenchPenalties()
	assignVersions(el.Events)
	for i := range el.Events {
		if isBenchDescription(el.Events[i]) {
			el.Events[i].Player1 = pbp.BenchPlayer
		}
	}
	return el, nil
}

func (l *EventLog) readHeader(d *goquery.Document) {
	var headers []string
	d.Find(`td[align="center"]`).Each(func(_ int, s *goquery.Selection) {
		if style, ok := s.Attr("style"); ok && strings.Contains(style, "font-size: 10px;font-weight:bold") {
			headers = append(headers, s.Text())
		}
	})
	for _, h := range headers {
		if strings.Contains(h, "Away Game") || strings.Contains(h, "tr./Away") {
			l.AwayTeamName = teamFromHeader(h)
			break
		}
	}
	for _, h := range headers {
		if strings.Contains(h, "Home Game") || strings.Contains(h, "Dom./Home") {
			l.HomeTeamName = teamFromHeader(h)
			break
		}
	}
	if len(headers) > 2 {
		l.GameDate = parseGameDate(clean(headers[2]))
		// The report for this game carries the previous day's date.
		if l.Season == "20072008" && pbp.SmallID(l.GameID) == "20003" {
			l.GameDate = l.GameDate.AddDate(0, 0, 1)
		}
	}
}

func teamFromHeader(h string) string {
	team := matchOrGame.Split(h, 2)[0]
	return strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(team, "\n", " ")))
}

func parseGameDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	log.Printf("[reports] ⚠️  unparsed game date %q", s)
	return time.Time{}
}

func (l *EventLog) parseRow(row []string, teamNumbers map[string]pbp.RosterEntry) (pbp.Event, error) {
	index, err := strconv.Atoi(clean(row[0]))
	if err != nil {
		return pbp.Event{}, fmt.Errorf("event index %q: %w", clean(row[0]), pbp.ErrStructural)
	}

	period := 1
	if p := clean(row[1]); p != "" {
		period, err = strconv.Atoi(p)
		if err != nil {
			return pbp.Event{}, fmt.Errorf("event %d period %q: %w", index, p, pbp.ErrStructural)
		}
	}

	clock := elapsedClock(row[3])
	periodSecs, err := pbp.ParseClock(clock)
	if err != nil {
		return pbp.Event{}, err
	}

	ev := pbp.Event{
		EventIndex:     index,
		Period:         period,
		Clock:          clock,
		GameSeconds:    pbp.GameSeconds(period, periodSecs, l.Playoff),
		Type:           clean(row[4]),
		Description:    strings.TrimSpace(row[5]),
		Strength:       clean(row[2]),
		AwaySkatersRaw: strings.ReplaceAll(row[6], "\n", ""),
		HomeSkatersRaw: strings.ReplaceAll(row[7], "\n", ""),
	}
	ev.Priority = pbp.Priority(ev.Type)
	ev.EventTeam = l.eventTeam(ev.Description)

	p1, p2, p3 := l.participants(ev)
	ev.Player1 = teamNumbers[p1].Name
	ev.Player2 = teamNumbers[p2].Name
	ev.Player3 = teamNumbers[p3].Name
	return ev, nil
}

// elapsedClock keeps the elapsed half of the glued "3:0017:00" time cell.
func elapsedClock(cell string) string {
	cell = clean(cell)
	parts := strings.SplitN(cell, ":", 2)
	if len(parts) != 2 {
		return "0:00"
	}
	secs := parts[1]
	if len(secs) > 2 {
		secs = secs[:2]
	}
	if strings.TrimSpace(parts[0]) == "" && secs == "" {
		return "0:00"
	}
	return parts[0] + ":" + secs
}

func (l *EventLog) eventTeam(description string) string {
	token := strings.SplitN(description, " ", 2)[0]
	token = strings.SplitN(token, pbp.Blank, 2)[0]
	if token == l.HomeTeam || token == l.AwayTeam {
		return token
	}
	return pbp.Blank
}

func (l *EventLog) otherTeam(team string) string {
	switch team {
	case l.HomeTeam:
		return l.AwayTeam
	case l.AwayTeam:
		return l.HomeTeam
	}
	return pbp.Blank
}

// participants returns the team-prefixed sweater keys ("TBL21") for the
// three participant slots.
func (l *EventLog) participants(ev pbp.Event) (string, string, string) {
	var nums [3]string
	for i, m := range playerNumber.FindAllStringSubmatch(ev.Description, 3) {
		nums[i] = m[1]
	}
	if strings.Contains(ev.Description, "Drawn By") {
		nums[1] = drawnBy(ev.Description)
		if strings.Contains(ev.Description, "Served By") {
			nums[2] = ""
		}
	}

	team, other := ev.EventTeam, l.otherTeam(ev.EventTeam)
	key := func(prefix, num string) string {
		if num == "" {
			return ""
		}
		return prefix + num
	}

	var p1, p2 string
	switch ev.Type {
	case pbp.TypeFaceoff:
		p1 = key(l.AwayTeam, nums[0])
		p2 = key(l.HomeTeam, nums[1])
		if team == l.HomeTeam {
			p1, p2 = p2, p1
		}
	case pbp.TypeBlock, pbp.TypeHit, pbp.TypePenalty:
		p1 = key(team, nums[0])
		p2 = key(other, nums[1])
	default:
		p1 = key(team, nums[0])
		p2 = key(team, nums[1])
	}
	return p1, p2, key(team, nums[2])
}

func drawnBy(description string) string {
	after := strings.SplitN(description, "Drawn By", 2)[1]
	parts := strings.SplitN(after, "#", 3)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(strings.SplitN(parts[1], " ", 2)[0])
}

// isBenchDescription covers team-level events. A shot blocked by a teammate
// keeps its shooter.
func isBenchDescription(ev pbp.Event) bool {
	upper := strings.ToUpper(ev.Description)
	if ev.Type == pbp.TypeBlock && strings.Contains(upper, "TEAMMATE") {
		return false
	}
	return strings.Contains(upper, "TEAM") || strings.Contains(strings.ToLower(ev.Description), "bench")
}

// assignBenchPenalties gives team-less bench minors to the side whose
// on-ice count drops on the next row.
func (l *EventLog) assignBenchPenalties() {
	for i := 0; i+1 < len(l.Events); i++ {
		ev := &l.Events[i]
		if ev.Type != pbp.TypePenalty || ev.EventTeam != pbp.Blank {
			continue
		}
		if !strings.Contains(strings.ToLower(ev.Description), "bench") {
			continue
		}
		next := l.Events[i+1]
		if skaterLetters(ev.HomeSkatersRaw) > skaterLetters(next.HomeSkatersRaw) {
			ev.EventTeam = l.HomeTeam
		}
		if skaterLetters(ev.AwaySkatersRaw) > skaterLetters(next.AwaySkatersRaw) {
			ev.EventTeam = l.AwayTeam
		}
	}
}

func skaterLetters(raw string) int {
	return len(capitals.FindAllString(raw, -1))
}

// SkatersFromRaw counts the position letters in an on-ice cell, leaving
// out the goalie.
func SkatersFromRaw(raw string) int {
	return skaterLetters(raw) - strings.Count(raw, "G")
}

// assignVersions numbers repeats in pbp.VersionKey order and leaves the
// slice in report order.
func assignVersions(events []pbp.Event) {
	keys := make([]pbp.VersionKey, len(events))
	order := make([]int, len(events))
	for i, ev := range events {
		keys[i] = pbp.VersionKey{Type: ev.Type, Player: ev.Player1, GameSeconds: ev.GameSeconds, Period: ev.Period, Description: ev.Description}
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]].Less(keys[order[b]])
	})
	sorted := make([]pbp.VersionKey, len(order))
	for i, idx := range order {
		sorted[i] = keys[idx]
	}
	for i, v := range pbp.Versions(sorted) {
		events[order[i]].Version = v
	}
}

func firstToken(s string) string {
	return strings.SplitN(strings.TrimSpace(strings.ReplaceAll(s, "\n", " ")), " ", 2)[0]
}
