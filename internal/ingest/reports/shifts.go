package reports

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/puckline/internal/names"
	"github.com/fortuna/puckline/internal/pbp"
)

const (
	classPlayerHeading = "playerHeading + border"
	classShiftCell     = "lborder + bborder"
	classSummaryCell   = "bborder + lborder +"
	periodLength       = "20:00"
	periodSeconds      = 20 * 60
)

// ShiftInput is everything the shift parser needs for one game.
type ShiftInput struct {
	GameID  string
	Home    []byte
	Away    []byte
	Summary []byte // GS report, only read in live mode
	Roster  *Roster
	Live    bool
}

// ShiftLog is the unified shift table plus the change stream derived from it.
type ShiftLog struct {
	HomeTeamName string
	AwayTeamName string
	Shifts       []pbp.Shift
	Changes      []pbp.Change
	// SettledSeconds is the live cut-off applied to Changes, -1 otherwise.
	SettledSeconds int
}

type rawShift struct {
	name        string
	number      string
	shiftNumber int
	period      string
	start       string
	end         string
	duration    string
}

type teamShifts struct {
	venue  pbp.Venue
	team   string
	shifts []rawShift
}

// ParseShifts parses both TOI reports. A report with no shift cells yields
// pbp.ErrNoShiftData.
func ParseShifts(in ShiftInput) (*ShiftLog, error) {
	return parseShifts(in, names.Default())
}

func parseShifts(in ShiftInput, table *names.Table) (*ShiftLog, error) {
	home, err := parseTeamShifts(in.Home, pbp.Home, in.Live, table)
	if err != nil {
		return nil, fmt.Errorf("home shifts: %w", err)
	}
	away, err := parseTeamShifts(in.Away, pbp.Away, in.Live, table)
	if err != nil {
		return nil, fmt.Errorf("away shifts: %w", err)
	}

	isGoalie := func(name string) bool {
		return in.Roster != nil && in.Roster.IsGoalie(name)
	}

	needsGoalies := len(home.goalielessPeriods(isGoalie)) > 0 || len(away.goalielessPeriods(isGoalie)) > 0
	if in.Live && needsGoalies && len(in.Summary) > 0 {
		summary, err := ParseGoalieSummary(in.Summary)
		if err != nil {
			log.Printf("[reports] ⚠️  goalie summary unavailable: %v", err)
		} else {
			home.backfillGoalies(summary.Home, isGoalie, table)
			away.backfillGoalies(summary.Away, isGoalie, table)
		}
	}

	sl := &ShiftLog{
		HomeTeamName:   home.team,
		AwayTeamName:   away.team,
		SettledSeconds: -1,
	}
	playoff := pbp.IsPlayoff(in.GameID)
	for _, ts := range []*teamShifts{home, away} {
		sl.Shifts = append(sl.Shifts, ts.finalize(isGoalie)...)
	}
	sl.Changes = buildChanges(sl.Shifts, playoff)

	if in.Live {
		sl.SettledSeconds = settledSeconds(sl.Shifts, playoff)
		kept := sl.Changes[:0]
		for _, c := range sl.Changes {
			if c.GameSeconds <= sl.SettledSeconds {
				kept = append(kept, c)
			}
		}
		sl.Changes = kept
	}
	return sl, nil
}

func parseTeamShifts(doc []byte, venue pbp.Venue, live bool, table *names.Table) (*teamShifts, error) {
	d, err := parseLatin1(doc)
	if err != nil {
		return nil, err
	}
	ts := &teamShifts{venue: venue}
	d.Find(`td[align="center"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if hasExactClass(s, "teamHeading + border") {
			ts.team = names.NormalizeTeam(s.Text())
			return false
		}
		return true
	})

	players := groupByPlayer(d, classShiftCell)
	if len(players) == 0 {
		return nil, pbp.ErrNoShiftData
	}
	maxShift := map[string]int{}
	for _, p := range players {
		name := table.Normalize(p.name)
		for i := 0; i+5 <= len(p.cells); i += 5 {
			c := p.cells[i : i+5]
			n, _ := strconv.Atoi(strings.TrimSpace(c[0]))
			ts.shifts = append(ts.shifts, rawShift{
				name:        name,
				number:      p.number,
				shiftNumber: n,
				period:      strings.TrimSpace(c[1]),
				start:       c[2],
				end:         c[3],
				duration:    c[4],
			})
			if n > maxShift[name] {
				maxShift[name] = n
			}
		}
	}

	if live {
		summary := groupByPlayer(d, classSummaryCell)
		if len(summary) == 0 {
			return nil, pbp.ErrNoShiftData
		}
		for _, p := range summary {
			name := table.Normalize(p.name)
			prior, ok := maxShift[name]
			if !ok {
				continue
			}
			for i := 0; i+6 <= len(p.cells); i += 6 {
				c := p.cells[i : i+6]
				if strings.TrimSpace(c[1]) != "0" {
					continue
				}
				toi := strings.TrimSpace(c[3])
				ts.shifts = append(ts.shifts, rawShift{
					name:        name,
					number:      p.number,
					shiftNumber: prior + 1,
					period:      strings.TrimSpace(c[0]),
					start:       "0:00 / " + toi,
					end:         toi + " / " + remaining(toi),
					duration:    toi,
				})
			}
		}
	}
	ts.sort()
	return ts, nil
}

type playerCells struct {
	number string
	name   string
	cells  []string
}

// groupByPlayer walks heading and data cells in document order, attaching
// each data cell to the most recent "NN LAST, FIRST" heading.
func groupByPlayer(d *goquery.Document, dataClass string) []*playerCells {
	var out []*playerCells
	var cur *playerCells
	d.Find("td").Each(func(_ int, s *goquery.Selection) {
		if !hasExactClass(s, classPlayerHeading, dataClass) {
			return
		}
		line := s.Text()
		if line == "25 PETTERSSON, ELIAS" {
			line = "25 PETTERSSON(D), ELIAS"
		}
		if strings.Contains(line, ", ") {
			number, name := splitHeading(line)
			cur = &playerCells{number: number, name: name}
			out = append(out, cur)
			return
		}
		if cur != nil {
			cur.cells = append(cur.cells, line)
		}
	})
	return out
}

// splitHeading turns "21 POINT, BRAYDEN" into ("21", "BRAYDEN POINT").
func splitHeading(line string) (string, string) {
	parts := strings.SplitN(line, ",", 2)
	numberLast := strings.SplitN(strings.TrimSpace(parts[0]), " ", 2)
	number := strings.TrimSpace(numberLast[0])
	last := ""
	if len(numberLast) > 1 {
		last = strings.TrimSpace(numberLast[1])
	}
	return number, strings.TrimSpace(parts[1]) + " " + last
}

func remaining(toi string) string {
	secs, err := pbp.ParseClock(toi)
	if err != nil {
		return periodLength
	}
	return pbp.FormatClock(20*60 - secs)
}

func (ts *teamShifts) sort() {
	sort.SliceStable(ts.shifts, func(i, j int) bool {
		a, b := ts.shifts[i], ts.shifts[j]
		an, _ := strconv.Atoi(a.number)
		bn, _ := strconv.Atoi(b.number)
		if an != bn {
			return an < bn
		}
		if a.period != b.period {
			return a.period < b.period
		}
		return a.shiftNumber < b.shiftNumber
	})
}

// goalielessPeriods lists the reported periods in which none of the team's
// shifts belongs to a goalie.
func (ts *teamShifts) goalielessPeriods(isGoalie func(string) bool) []int {
	present := map[int]bool{}
	covered := map[int]bool{}
	for _, r := range ts.shifts {
		p, ok := shiftPeriod(r.period)
		if !ok {
			continue
		}
		present[p] = true
		if isGoalie(r.name) {
			covered[p] = true
		}
	}
	var out []int
	for p := range present {
		if !covered[p] {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// backfillGoalies synthesizes goalie shifts for every period the shift
// report leaves without a goalie. The summary lists goalies in the order
// they played, so their time on ice is laid end to end from opening
// faceoff and cut at period boundaries.
func (ts *teamShifts) backfillGoalies(goalies []GoalieTOI, isGoalie func(string) bool, table *names.Table) {
	missing := ts.goalielessPeriods(isGoalie)
	if len(missing) == 0 || len(goalies) == 0 {
		return
	}
	lastShift := map[string]int{}
	for _, r := range ts.shifts {
		lastShift[r.name] = max(lastShift[r.name], r.shiftNumber)
	}

	added, offset := 0, 0
	for _, g := range goalies {
		toi, err := pbp.ParseClock(g.TOI)
		if err != nil || toi <= 0 {
			continue
		}
		from, to := offset, offset+toi
		offset = to
		name := table.Normalize(g.Name)
		for _, p := range missing {
			periodStart := (p - 1) * periodSeconds
			start := max(from, periodStart) - periodStart
			end := min(to, periodStart+periodSeconds) - periodStart
			if end <= start {
				continue
			}
			lastShift[name]++
			ts.shifts = append(ts.shifts, rawShift{
				name:        name,
				number:      g.Number,
				shiftNumber: lastShift[name],
				period:      strconv.Itoa(p),
				start:       pbp.FormatClock(start) + " / " + pbp.FormatClock(periodSeconds-start),
				end:         pbp.FormatClock(end) + " / " + pbp.FormatClock(periodSeconds-end),
				duration:    pbp.FormatClock(end - start),
			})
			added++
		}
	}
	if added == 0 {
		return
	}
	ts.sort()
	log.Printf("[reports] ✓ Backfilled %d %s goalie shift(s) from game summary", added, ts.venue)
}

// finalize applies the clock repairs and returns typed shifts.
func (ts *teamShifts) finalize(isGoalie func(string) bool) []pbp.Shift {
	var out []pbp.Shift
	for _, r := range ts.shifts {
		period, ok := shiftPeriod(r.period)
		if !ok {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(r.duration), "-") {
			continue
		}
		start := clampClock(beforeSlash(r.start))
		end := beforeSlash(r.end)
		if strings.Contains(r.end, pbp.Blank) {
			end = pbp.FormatClock(pbp.MustClock(start) + pbp.MustClock(r.duration))
		}
		end = clampClock(end)
		if pbp.MustClock(start) > pbp.MustClock(end) {
			end = periodLength
		}
		out = append(out, pbp.Shift{
			Venue:       ts.venue,
			Team:        ts.team,
			Player:      r.name,
			Number:      r.number,
			ShiftNumber: r.shiftNumber,
			Period:      period,
			Start:       start,
			End:         end,
			Duration:    strings.TrimSpace(r.duration),
			Goalie:      isGoalie(r.name),
		})
	}

	// A goalie who was the only one in net for a period but whose first
	// shift is reported late started the period.
	goaliesPerPeriod := map[int]map[string]bool{}
	for _, s := range out {
		if !s.Goalie {
			continue
		}
		if goaliesPerPeriod[s.Period] == nil {
			goaliesPerPeriod[s.Period] = map[string]bool{}
		}
		goaliesPerPeriod[s.Period][s.Player] = true
	}
	seen := map[string]bool{}
	for i := range out {
		s := &out[i]
		key := strconv.Itoa(s.Period) + "|" + s.Player
		first := !seen[key]
		seen[key] = true
		if s.Goalie && first && s.Start != "0:00" && len(goaliesPerPeriod[s.Period]) == 1 {
			s.Start = "0:00"
		}
	}
	return out
}

func shiftPeriod(p string) (int, bool) {
	switch strings.TrimSpace(p) {
	case "1":
		return 1, true
	case "2":
		return 2, true
	case "3":
		return 3, true
	case "4", "OT":
		return 4, true
	}
	return 0, false
}

func beforeSlash(s string) string {
	return strings.TrimSpace(strings.SplitN(s, "/", 2)[0])
}

// clampClock caps clocks that overflow the period ("28:10") at 20:00.
func clampClock(clock string) string {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return periodLength
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return periodLength
	}
	if minutes >= 20 {
		return periodLength
	}
	return clock
}

type changeKey struct {
	venue  pbp.Venue
	period int
	secs   int
}

// buildChanges groups shift starts and ends into per-team change rows.
func buildChanges(shifts []pbp.Shift, playoff bool) []pbp.Change {
	index := map[changeKey]*pbp.Change{}
	var order []changeKey

	get := func(s pbp.Shift, clock string) *pbp.Change {
		k := changeKey{s.Venue, s.Period, pbp.MustClock(clock)}
		c, ok := index[k]
		if !ok {
			c = &pbp.Change{
				Team:        s.Team,
				Venue:       s.Venue,
				Period:      s.Period,
				Clock:       pbp.FormatClock(k.secs),
				GameSeconds: pbp.GameSeconds(s.Period, k.secs, playoff),
			}
			index[k] = c
			order = append(order, k)
		}
		return c
	}

	for _, s := range shifts {
		c := get(s, s.Start)
		c.On = joinName(c.On, s.Player)
		c.OnNumbers = joinName(c.OnNumbers, s.Number)
		c.NumberOn++
	}
	for _, s := range shifts {
		c := get(s, s.End)
		c.Off = joinName(c.Off, s.Player)
		c.OffNumbers = joinName(c.OffNumbers, s.Number)
		c.NumberOff++
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.period != b.period {
			return a.period < b.period
		}
		if a.secs != b.secs {
			return a.secs < b.secs
		}
		return a.venue == pbp.Away && b.venue == pbp.Home
	})
	out := make([]pbp.Change, 0, len(order))
	for _, k := range order {
		out = append(out, *index[k])
	}
	return out
}

func joinName(list, name string) string {
	if list == "" {
		return name
	}
	return list + ", " + name
}

// settledSeconds is the earliest of each team's latest reported shift end.
func settledSeconds(shifts []pbp.Shift, playoff bool) int {
	latest := map[pbp.Venue]int{}
	for _, s := range shifts {
		gs := pbp.GameSeconds(s.Period, pbp.MustClock(s.End), playoff)
		if gs > latest[s.Venue] {
			latest[s.Venue] = gs
		}
	}
	settled := -1
	for _, gs := range latest {
		if settled == -1 || gs < settled {
			settled = gs
		}
	}
	return settled
}
