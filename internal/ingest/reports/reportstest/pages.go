// Package reportstest renders minimal NHL HTML reports for tests. The markup
// carries only the attributes the parsers select on.
package reportstest

import (
	"fmt"
	"strings"
)

const tableOpen = `<table align="center" border="0" cellpadding="0" cellspacing="0" width="100%">`

// Player is one roster line.
type Player struct {
	Number string
	Pos    string
	Name   string
}

// Team is one side of a roster report.
type Team struct {
	Name      string
	Abbr      string
	Players   []Player
	Scratches []Player
}

// RosterPage renders an RO report.
func RosterPage(away, home Team) []byte {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(tableOpen)
	fmt.Fprintf(&b, `<tr><td align="center" width="50%%" class="teamHeading + border">%s</td>`, away.Name)
	fmt.Fprintf(&b, `<td align="center" width="50%%" class="teamHeading + border">%s</td></tr>`, home.Name)
	b.WriteString("</table>")
	for _, players := range [][]Player{away.Players, home.Players, away.Scratches, home.Scratches} {
		b.WriteString(tableOpen)
		b.WriteString(`<tr><td>#</td><td>Pos</td><td>Name</td></tr>`)
		for _, p := range players {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>", p.Number, p.Pos, p.Name)
		}
		b.WriteString("</table>")
	}
	b.WriteString("</body></html>")
	return []byte(b.String())
}

// EventRow is one PL line. Time is the glued elapsed+remaining cell.
type EventRow struct {
	Index       int
	Period      string
	Strength    string
	Time        string
	Type        string
	Description string
	AwayOnIce   string
	HomeOnIce   string
}

// EventsPage renders a PL report with one header row.
func EventsPage(away, home Team, date string, rows []EventRow) []byte {
	var b strings.Builder
	b.WriteString("<html><body><table>")
	fmt.Fprintf(&b, `<tr><td align="center" style="font-size: 10px;font-weight:bold">%s<br>Game 5 Away Game 3</td>`, away.Name)
	fmt.Fprintf(&b, `<td align="center" style="font-size: 10px;font-weight:bold">%s<br>Game 5 Home Game 2</td>`, home.Name)
	fmt.Fprintf(&b, `<td align="center" style="font-size: 10px;font-weight:bold">%s</td></tr>`, date)
	b.WriteString("</table><table>")
	writeEventRow(&b, "#", "Per", "Str", "Time:Elapsed Game", "Event", "Description", away.Abbr+" On Ice", home.Abbr+" On Ice")
	for _, r := range rows {
		writeEventRow(&b, fmt.Sprint(r.Index), r.Period, r.Strength, r.Time, r.Type, r.Description, r.AwayOnIce, r.HomeOnIce)
	}
	b.WriteString("</table></body></html>")
	return []byte(b.String())
}

// HeaderRow repeats the page header the way multi-page reports do.
func HeaderRow(away, home Team) EventRow {
	return EventRow{Period: "Per", Time: "Time:Elapsed Game", Type: "Event", Description: "Description",
		AwayOnIce: away.Abbr + " On Ice", HomeOnIce: home.Abbr + " On Ice"}
}

func writeEventRow(b *strings.Builder, cells ...string) {
	b.WriteString("<tr>")
	for _, c := range cells {
		fmt.Fprintf(b, `<td class="bborder">%s</td>`, c)
	}
	b.WriteString("</tr>")
}

// OnIce renders an on-ice cell as sweater/position pairs.
func OnIce(pairs ...string) string {
	var b strings.Builder
	b.WriteString("<table><tr>")
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, `<td><font title="">%s</font><br>%s</td>`, pairs[i], pairs[i+1])
	}
	b.WriteString("</tr></table>")
	return b.String()
}

// ShiftRow is one line of a TOI report.
type ShiftRow struct {
	Number   int
	Period   string
	Start    string
	End      string
	Duration string
}

// PeriodSummary is one (period, shifts, avg, TOI, EV, PP) line.
type PeriodSummary [6]string

// PlayerShifts is one player block of a TOI report. Heading is "NN LAST, FIRST".
type PlayerShifts struct {
	Heading string
	Shifts  []ShiftRow
	Summary []PeriodSummary
}

// ShiftsPage renders a TH/TV report.
func ShiftsPage(team string, players []PlayerShifts) []byte {
	var b strings.Builder
	b.WriteString("<html><body><table>")
	fmt.Fprintf(&b, `<tr><td align="center" class="teamHeading + border">%s</td></tr>`, team)
	for _, p := range players {
		fmt.Fprintf(&b, `<tr><td class="playerHeading + border">%s</td></tr>`, p.Heading)
		for _, s := range p.Shifts {
			b.WriteString("<tr>")
			for _, c := range []string{fmt.Sprint(s.Number), s.Period, s.Start, s.End, s.Duration} {
				fmt.Fprintf(&b, `<td class="lborder + bborder">%s</td>`, c)
			}
			b.WriteString("</tr>")
		}
		for _, s := range p.Summary {
			b.WriteString("<tr>")
			for _, c := range s {
				fmt.Fprintf(&b, `<td class="bborder + lborder +">%s</td>`, c)
			}
			b.WriteString("</tr>")
		}
	}
	b.WriteString("</table></body></html>")
	return []byte(b.String())
}

// GoalieLine is one row of the goaltender summary.
type GoalieLine struct {
	Number string
	Name   string // "LAST, FIRST"
	TOI    string
}

// SummaryPage renders a GS report with only the goaltender section.
func SummaryPage(away, home Team, awayGoalies, homeGoalies []GoalieLine) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><table><tr><td class="sectionheading">GOALTENDER SUMMARY</td></tr></table><table>`)
	block := func(team string, goalies []GoalieLine) {
		fmt.Fprintf(&b, "<tr><td>%s</td></tr>", team)
		b.WriteString("<tr><td>#</td><td>POS</td><td>NAME</td><td>EV</td><td>PP</td><td>SH</td><td>TOT</td></tr>")
		for i := 0; i < 2; i++ {
			if i < len(goalies) {
				g := goalies[i]
				fmt.Fprintf(&b, "<tr><td>%s</td><td>G</td><td>%s</td><td></td><td></td><td></td><td>%s</td></tr>", g.Number, g.Name, g.TOI)
				continue
			}
			b.WriteString("<tr><td></td><td></td><td>TEAM TOTALS</td><td></td><td></td><td></td><td>TOT</td></tr>")
		}
	}
	block(away.Name, awayGoalies)
	b.WriteString("<tr><td>&nbsp;</td></tr><tr><td>&nbsp;</td></tr>")
	block(home.Name, homeGoalies)
	b.WriteString("</table></body></html>")
	return []byte(b.String())
}
