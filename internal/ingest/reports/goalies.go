package reports

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/puckline/internal/pbp"
)

// GoalieTOI is one goaltender line from the game summary.
type GoalieTOI struct {
	Number string
	Name   string // "FIRST LAST"
	TOI    string
}

// GoalieSummary holds the GOALTENDER SUMMARY section of a GS report.
type GoalieSummary struct {
	Home []GoalieTOI
	Away []GoalieTOI
}

// Row windows of the goaltender table. The away block is the team heading
// followed by its goalies; the home block starts at row 6.
var (
	awayGoalieRows = [2]int{2, 4}
	homeGoalieRows = [2]int{8, 10}
)

// ParseGoalieSummary reads the table that follows the GOALTENDER SUMMARY
// heading.
func ParseGoalieSummary(doc []byte) (*GoalieSummary, error) {
	d, err := parseLatin1(doc)
	if err != nil {
		return nil, err
	}

	var goalieTable *goquery.Selection
	found := false
	d.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !found {
			if goquery.NodeName(s) == "td" && strings.TrimSpace(s.Text()) == "GOALTENDER SUMMARY" {
				found = true
			}
			return true
		}
		if goquery.NodeName(s) == "table" {
			goalieTable = s
			return false
		}
		return true
	})
	if goalieTable == nil {
		return nil, fmt.Errorf("goaltender summary not found: %w", pbp.ErrStructural)
	}

	var rows [][]string
	goalieTable.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return
		}
		rows = append(rows, texts(cells))
	})

	return &GoalieSummary{
		Away: goalieRows(rows, awayGoalieRows),
		Home: goalieRows(rows, homeGoalieRows),
	}, nil
}

func goalieRows(rows [][]string, window [2]int) []GoalieTOI {
	if window[0] >= len(rows) {
		return nil
	}
	block := rows[window[0]:min(window[1], len(rows))]

	// The TOT column (6) wins when any goalie has a value there.
	toiCol := 3
	for _, r := range block {
		if len(r) > 6 && clean(r[6]) != "" {
			toiCol = 6
			break
		}
	}

	var out []GoalieTOI
	for _, r := range block {
		if len(r) <= toiCol || clean(r[0]) == "" {
			continue
		}
		toi := clean(r[toiCol])
		name := clean(r[2])
		if toi == "" || toi == "TOT" || name == "TEAM TOTALS" || !strings.Contains(toi, ":") {
			continue
		}
		out = append(out, GoalieTOI{
			Number: clean(r[0]),
			Name:   swapName(name),
			TOI:    toi,
		})
	}
	return out
}

// swapName turns "VASILEVSKIY, ANDREI" into "ANDREI VASILEVSKIY".
func swapName(name string) string {
	parts := strings.SplitN(name, ", ", 2)
	if len(parts) != 2 {
		return name
	}
	return strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
}
