// Package names maps the many spellings of a player's name across the NHL
// reports, the NHL API and ESPN onto one canonical form.
package names

import (
	_ "embed"
	"fmt"
	"io"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed names.json
var embedded []byte

var (
	multiSpace = regexp.MustCompile(` {2,}`)
	captaincy  = regexp.MustCompile(` \((A|C)\)$`)

	givenNames = strings.NewReplacer(
		"ALEXANDRE ", "ALEX ",
		"ALEXANDER ", "ALEX ",
		"CHRISTOPHER ", "CHRIS ",
	)
)

// Override renames a roster player when the auxiliary signal matches.
// Empty fields do not constrain.
type Override struct {
	Name         string `json:"name"`
	Position     string `json:"position,omitempty"`
	NotPosition  string `json:"not_position,omitempty"`
	SeasonBefore int    `json:"season_before,omitempty"`
	Result       string `json:"result"`
}

func (o Override) matches(name, position string, season int) bool {
	if o.Name != name {
		return false
	}
	if o.Position != "" && o.Position != position {
		return false
	}
	if o.NotPosition != "" && o.NotPosition == position {
		return false
	}
	if o.SeasonBefore != 0 && season >= o.SeasonBefore {
		return false
	}
	return true
}

type document struct {
	Corrections     map[string]string `json:"corrections"`
	RosterOverrides []Override        `json:"roster_overrides"`
	IDOverrides     map[string]string `json:"id_overrides"`
}

// Table is the loaded correction data. It is read-only after Load and safe
// for concurrent use.
type Table struct {
	corrections map[string]string
	overrides   []Override
	ids         map[int]string
}

// Load parses a names document. Keys and values pass through the same
// general transforms Normalize applies, and correction chains are collapsed
// to their final spelling so a normalized name is a fixed point.
func Load(r io.Reader) (*Table, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode names table: %w", err)
	}

	raw := make(map[string]string, len(doc.Corrections))
	keys := make([]string, 0, len(doc.Corrections))
	for k := range doc.Corrections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		from, to := fold(k), fold(doc.Corrections[k])
		if from == to || from == "" {
			continue
		}
		raw[from] = to
	}

	t := &Table{
		corrections: make(map[string]string, len(raw)),
		ids:         make(map[int]string, len(doc.IDOverrides)),
	}
	for from := range raw {
		final, ok := resolve(raw, from)
		if !ok {
			log.Printf("[names] ⚠️  correction cycle at %q, entry dropped", from)
			continue
		}
		t.corrections[from] = final
	}

	for _, o := range doc.RosterOverrides {
		o.Name = fold(o.Name)
		o.Result = fold(o.Result)
		t.overrides = append(t.overrides, o)
	}
	for id, name := range doc.IDOverrides {
		n, err := strconv.Atoi(id)
		if err != nil {
			return nil, fmt.Errorf("id override %q: %w", id, err)
		}
		t.ids[n] = fold(name)
	}
	return t, nil
}

func resolve(m map[string]string, from string) (string, bool) {
	seen := map[string]bool{from: true}
	cur := m[from]
	for {
		next, ok := m[cur]
		if !ok {
			return cur, true
		}
		if seen[cur] {
			return "", false
		}
		seen[cur] = true
		cur = next
	}
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(strings.NewReader(string(embedded)))
		if err != nil {
			panic(fmt.Sprintf("embedded names table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Normalize maps a raw name to its canonical spelling using the embedded table.
func Normalize(raw string) string {
	return Default().Normalize(raw)
}

// Normalize is total: unknown names come back folded but otherwise unchanged.
func (t *Table) Normalize(raw string) string {
	name := fold(raw)
	if fixed, ok := t.corrections[name]; ok {
		return fixed
	}
	return name
}

// Disambiguate applies the roster override rules to an already normalized name.
func (t *Table) Disambiguate(name, position string, season int) string {
	for _, o := range t.overrides {
		if o.matches(name, position, season) {
			return o.Result
		}
	}
	return name
}

// ForPlayerID returns a hard override for an API player id.
func (t *Table) ForPlayerID(id int) (string, bool) {
	name, ok := t.ids[id]
	return name, ok
}

// Len is the number of active corrections.
func (t *Table) Len() int {
	return len(t.corrections)
}

func fold(s string) string {
	s = stripDiacritics(strings.TrimSpace(s))
	s = strings.ToUpper(s)
	s = givenNames.Replace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	for captaincy.MatchString(s) {
		s = strings.TrimSpace(captaincy.ReplaceAllString(s, ""))
	}
	return strings.TrimSpace(s)
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var teamAliases = map[string]string{
	"CANADIENS MONTREAL":  "MONTREAL CANADIENS",
	"MONTRÉAL CANADIENS":  "MONTREAL CANADIENS",
	"CANADIENS MONTRÉAL":  "MONTREAL CANADIENS",
	"MONTREAL  CANADIENS": "MONTREAL CANADIENS",
}

// NormalizeTeam folds the alternate encodings of a franchise name.
func NormalizeTeam(team string) string {
	team = strings.ToUpper(strings.TrimSpace(team))
	if fixed, ok := teamAliases[team]; ok {
		return fixed
	}
	return team
}
