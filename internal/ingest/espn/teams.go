package espn

import "strings"

// TeamUnknown marks a scoreboard name the nickname table cannot place.
const TeamUnknown = "UNKNOWN"

var nicknames = map[string]string{
	"DUCKS":          "ANA",
	"COYOTES":        "ARI",
	"BRUINS":         "BOS",
	"SABRES":         "BUF",
	"FLAMES":         "CGY",
	"HURRICANES":     "CAR",
	"BLACKHAWKS":     "CHI",
	"AVALANCHE":      "COL",
	"BLUE":           "CBJ",
	"JACKETS":        "CBJ",
	"BLUE JACKETS":   "CBJ",
	"STARS":          "DAL",
	"RED":            "DET",
	"WINGS":          "DET",
	"RED WINGS":      "DET",
	"OILERS":         "EDM",
	"PANTHERS":       "FLA",
	"KINGS":          "LAK",
	"WILD":           "MIN",
	"CANADIENS":      "MTL",
	"PREDATORS":      "NSH",
	"DEVILS":         "NJD",
	"ISLANDERS":      "NYI",
	"RANGERS":        "NYR",
	"SENATORS":       "OTT",
	"FLYERS":         "PHI",
	"PENGUINS":       "PIT",
	"SHARKS":         "SJS",
	"KRAKEN":         "SEA",
	"BLUES":          "STL",
	"LIGHTNING":      "TBL",
	"LEAFS":          "TOR",
	"MAPLE":          "TOR",
	"MAPLE LEAFS":    "TOR",
	"CANUCKS":        "VAN",
	"GOLDEN":         "VGK",
	"KNIGHTS":        "VGK",
	"GOLDEN KNIGHTS": "VGK",
	"CAPITALS":       "WSH",
	"JETS":           "WPG",
	"CLUB":           "UTA",
	"MAMMOTH":        "UTA",
	"HOCKEY":         "UTA",
}

// The reports spell four franchises with a dot; ESPN sometimes drops it.
var abbreviations = map[string]string{
	"T.B": "TBL", "TB": "TBL",
	"L.A": "LAK", "LA": "LAK",
	"S.J": "SJS", "SJ": "SJS",
	"N.J": "NJD", "NJ": "NJD",
}

var relocated = map[string]string{
	"ATLANTA THRASHERS": "WINNIPEG JETS",
	"PHOENIX COYOTES":   "ARIZONA COYOTES",
	"ST LOUIS BLUES":    "ST. LOUIS BLUES",
}

var known = func() map[string]bool {
	m := make(map[string]bool)
	for _, abbr := range nicknames {
		m[abbr] = true
	}
	return m
}()

// CanonicalAbbreviation maps report abbreviations ("T.B") to the three
// letter form the scoreboard lookup compares against.
func CanonicalAbbreviation(abbr string) string {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	if fixed, ok := abbreviations[abbr]; ok {
		return fixed
	}
	return abbr
}

// CanonicalTeamName follows franchise moves so a historical full name
// matches the current scoreboard.
func CanonicalTeamName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if moved, ok := relocated[name]; ok {
		return moved
	}
	return name
}

// TeamAbbreviation maps a scoreboard short display name ("Lightning",
// "Maple Leafs") to its abbreviation. Abbreviations pass through.
func TeamAbbreviation(name string) string {
	name = CanonicalAbbreviation(CanonicalTeamName(name))
	if abbr, ok := nicknames[name]; ok {
		return abbr
	}
	if known[name] {
		return name
	}
	return TeamUnknown
}
