package reports

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/puckline/internal/names"
	"github.com/fortuna/puckline/internal/pbp"
)

const rosterTableSelector = `table[align="center"][border="0"][cellpadding="0"][cellspacing="0"][width="100%"]`

// Roster is the typed RO report for one game.
type Roster struct {
	Season       string
	HomeTeamName string
	AwayTeamName string
	Entries      []pbp.RosterEntry
}

// ParseRoster decodes a roster report. Player tables are laid out as
// repeating (#, Pos, Name) triples with a header triple first.
func ParseRoster(doc []byte, season string) (*Roster, error) {
	return parseRoster(doc, season, names.Default())
}

func parseRoster(doc []byte, season string, table *names.Table) (*Roster, error) {
	d, err := parseLatin1(doc)
	if err != nil {
		return nil, err
	}

	seasonNum, err := strconv.Atoi(season)
	if err != nil {
		return nil, fmt.Errorf("roster season %q: %w", season, err)
	}

	r := &Roster{Season: season}

	var headings []string
	d.Find(`td[align="center"][width="50%"]`).Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("teamHeading") && s.HasClass("border") {
			headings = append(headings, names.NormalizeTeam(s.Text()))
		}
	})
	if len(headings) > 0 {
		r.AwayTeamName = headings[0]
	}
	if len(headings) > 1 {
		r.HomeTeamName = headings[1]
	}

	tables := d.Find(rosterTableSelector)
	if tables.Length() < 3 {
		return nil, fmt.Errorf("roster has %d player tables: %w", max(tables.Length()-1, 0), pbp.ErrStructural)
	}

	sections := []struct {
		index  int
		venue  pbp.Venue
		status string
	}{
		{2, pbp.Home, pbp.StatusPlayer},
		{1, pbp.Away, pbp.StatusPlayer},
		{4, pbp.Home, pbp.StatusScratch},
		{3, pbp.Away, pbp.StatusScratch},
	}
	for _, sec := range sections {
		if sec.index >= tables.Length() {
			continue
		}
		cells := texts(tables.Eq(sec.index).Find("td"))
		if sec.status == pbp.StatusScratch && len(cells) <= 1 {
			continue
		}
		teamName := r.HomeTeamName
		if sec.venue == pbp.Away {
			teamName = r.AwayTeamName
		}
		for i := 3; i+2 < len(cells); i += 3 {
			name := table.Normalize(cells[i+2])
			pos := strings.TrimSpace(cells[i+1])
			if name == "" {
				continue
			}
			r.Entries = append(r.Entries, pbp.RosterEntry{
				Name:     table.Disambiguate(name, pos, seasonNum),
				Number:   strings.TrimSpace(cells[i]),
				Position: pos,
				Venue:    sec.venue,
				TeamName: teamName,
				Status:   sec.status,
			})
		}
	}

	if len(r.Players(pbp.Home)) == 0 || len(r.Players(pbp.Away)) == 0 {
		return nil, fmt.Errorf("roster missing dressed players: %w", pbp.ErrStructural)
	}
	if dup := r.duplicateNumber(); dup != "" {
		log.Printf("[reports] ⚠️  roster has duplicate sweater %s", dup)
	}
	return r, nil
}

// Players returns the dressed players for one side.
func (r *Roster) Players(v pbp.Venue) []pbp.RosterEntry {
	var out []pbp.RosterEntry
	for _, e := range r.Entries {
		if e.Venue == v && e.Status == pbp.StatusPlayer {
			out = append(out, e)
		}
	}
	return out
}

// Goalies returns every dressed goaltender.
func (r *Roster) Goalies() []pbp.RosterEntry {
	var out []pbp.RosterEntry
	for _, e := range r.Entries {
		if e.IsGoalie() {
			out = append(out, e)
		}
	}
	return out
}

// IsGoalie reports whether name is a dressed goaltender in this game.
func (r *Roster) IsGoalie(name string) bool {
	for _, e := range r.Entries {
		if e.Name == name && e.IsGoalie() {
			return true
		}
	}
	return false
}

// Lookup resolves a sweater number on one side to the dressed player.
func (r *Roster) Lookup(v pbp.Venue, number string) (pbp.RosterEntry, bool) {
	for _, e := range r.Entries {
		if e.Venue == v && e.Status == pbp.StatusPlayer && e.Number == number {
			return e, true
		}
	}
	return pbp.RosterEntry{}, false
}

// TeamNumbers keys dressed players by abbreviation plus sweater ("TBL21"),
// the notation used by the on-ice and change columns.
func (r *Roster) TeamNumbers(homeAbbr, awayAbbr string) map[string]pbp.RosterEntry {
	out := make(map[string]pbp.RosterEntry, len(r.Entries))
	for _, e := range r.Entries {
		if e.Status != pbp.StatusPlayer {
			continue
		}
		abbr := awayAbbr
		if e.Venue == pbp.Home {
			abbr = homeAbbr
		}
		out[abbr+e.Number] = e
	}
	return out
}

func (r *Roster) duplicateNumber() string {
	seen := make(map[string]bool)
	for _, e := range r.Entries {
		if e.Status != pbp.StatusPlayer {
			continue
		}
		key := string(e.Venue) + " #" + e.Number
		if seen[key] {
			return key
		}
		seen[key] = true
	}
	return ""
}
