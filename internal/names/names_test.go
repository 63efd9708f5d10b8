package names

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"table hit", "AJ GREER", "A.J. GREER"},
		{"lower case", "andrew greene", "ANDY GREENE"},
		{"diacritics", "Alexis Lafrenière", "ALEXIS LAFRENIERE"},
		{"given name", "Alexander Ovechkin", "ALEX OVECHKIN"},
		{"christopher", "CHRISTOPHER TANEV", "CHRIS TANEV"},
		{"captaincy", "SIDNEY CROSBY (C)", "SIDNEY CROSBY"},
		{"alternate", "CONNOR MCDAVID  (A)", "CONNOR MCDAVID"},
		{"spaces", "  NATHAN   MACKINNON ", "NATHAN MACKINNON"},
		{"unknown passes through", "Some Prospect", "SOME PROSPECT"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	tbl := Default()
	require.Greater(t, tbl.Len(), 100)

	inputs := []string{"Tim Stützle", "MATS ZUCCARELLO AASEN", "pierre-alexandre parenteau", "JOSH MORRISSEY (A)"}
	for from, to := range tbl.corrections {
		inputs = append(inputs, from, to)
	}
	for _, in := range inputs {
		once := tbl.Normalize(in)
		assert.Equal(t, once, tbl.Normalize(once), in)
	}
}

func TestLoadResolvesChainsAndCycles(t *testing.T) {
	doc := `{
		"corrections": {
			"A ONE": "A TWO",
			"A TWO": "A THREE",
			"LOOP X": "LOOP Y",
			"LOOP Y": "LOOP X",
			"José Smith": "JOSE SMITH"
		},
		"roster_overrides": [],
		"id_overrides": {"42": "Someone Else"}
	}`
	tbl, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "A THREE", tbl.Normalize("a one"))
	assert.Equal(t, "A THREE", tbl.Normalize("A TWO"))
	assert.Equal(t, "LOOP X", tbl.Normalize("LOOP X"))
	assert.Equal(t, "JOSE SMITH", tbl.Normalize("José Smith"))

	name, ok := tbl.ForPlayerID(42)
	assert.True(t, ok)
	assert.Equal(t, "SOMEONE ELSE", name)
	_, ok = tbl.ForPlayerID(7)
	assert.False(t, ok)
}

func TestLoadRejectsBadDocument(t *testing.T) {
	_, err := Load(strings.NewReader("{"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader(`{"id_overrides": {"abc": "X"}}`))
	assert.Error(t, err)
}

func TestDisambiguate(t *testing.T) {
	tbl := Default()
	tests := []struct {
		name     string
		position string
		season   int
		want     string
	}{
		{"SEBASTIAN AHO", "D", 20232024, "SEBASTIAN AHO SWE"},
		{"SEBASTIAN AHO", "C", 20232024, "SEBASTIAN AHO"},
		{"ELIAS PETTERSSON", "D", 20232024, "ELIAS PETTERSSON(D)"},
		{"ELIAS PETTERSSON", "C", 20232024, "ELIAS PETTERSSON"},
		{"ALEX PICARD", "L", 20102011, "ALEX PICARD F"},
		{"ALEX PICARD", "D", 20102011, "ALEX PICARD"},
		{"ERIK GUSTAFSSON", "D", 20102011, "ERIK GUSTAFSSON 88"},
		{"ERIK GUSTAFSSON", "D", 20192020, "ERIK GUSTAFSSON"},
		{"MIKKO LEHTONEN", "C", 20152016, "MIKKO LEHTONEN F"},
		{"MIKKO LEHTONEN", "D", 20212022, "MIKKO LEHTONEN"},
		{"COLIN", "C", 20232024, "COLIN WHITE CAN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tbl.Disambiguate(tt.name, tt.position, tt.season), tt.name+"/"+tt.position)
	}
}

func TestPlayerIDOverrides(t *testing.T) {
	name, ok := Default().ForPlayerID(8480222)
	require.True(t, ok)
	assert.Equal(t, "SEBASTIAN AHO SWE", name)
}

func TestNormalizeTeam(t *testing.T) {
	assert.Equal(t, "MONTREAL CANADIENS", NormalizeTeam("CANADIENS MONTREAL"))
	assert.Equal(t, "MONTREAL CANADIENS", NormalizeTeam("MONTRÉAL CANADIENS"))
	assert.Equal(t, "BOSTON BRUINS", NormalizeTeam(" boston bruins"))
}
