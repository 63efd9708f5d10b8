package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/puckline/internal/fetch"
	"github.com/fortuna/puckline/internal/ingest/espn/espntest"
	"github.com/fortuna/puckline/internal/pbp"
)

func TestParsePlayByPlaySample(t *testing.T) {
	rows, err := ParsePlayByPlay(espntest.SamplePlayByPlay(), false)
	require.NoError(t, err)
	require.Len(t, rows, 6, "period start has no athlete")

	byPlayer := map[string]pbp.CoordRow{}
	for _, r := range rows {
		assert.Equal(t, pbp.SourceESPN, r.Source)
		byPlayer[r.Player+"/"+r.Type] = r
	}

	shot := byPlayer["NIKITA KUCHEROV/SHOT"]
	assert.Equal(t, 300, shot.GameSeconds)
	assert.Equal(t, 71, shot.X)
	assert.Equal(t, -4, shot.Y)

	fac, ok := byPlayer["ALEKSANDER BARKOV/FAC"]
	require.True(t, ok)
	assert.Equal(t, 720, fac.GameSeconds)
	assert.Equal(t, 0, fac.X)
	assert.Equal(t, 0, fac.Y)

	_, ok = byPlayer["STEVEN STAMKOS/GOAL"]
	assert.True(t, ok)
}

func TestParsePlayByPlayRules(t *testing.T) {
	at := espntest.At
	x1, y1 := at(130, -70)
	x2, y2 := at(20, 5)
	page := espntest.PlayByPlay(3,
		espntest.Play{ID: "1", Period: 1, Clock: "1:00", Type: "Shot", Athlete: "Alexander Ovechkin", X: x1, Y: y1},
		espntest.Play{ID: "2", Period: 1, Clock: "2:00", Type: "Missed", Athlete: "Alexander Ovechkin"},
		espntest.Play{ID: "3", Period: 2, Clock: "3:00", Type: "Blocked", Athlete: "T J Oshie", X: x2, Y: y2},
		espntest.Play{ID: "4", Period: 2, Clock: "3:00", Type: "Blocked", Athlete: "T J Oshie", X: x2, Y: y2},
		espntest.Play{ID: "5", Period: 5, Clock: "0:00", Type: "Shot", Athlete: "T J Oshie", X: x2, Y: y2},
		espntest.Play{ID: "6", Period: 2, Clock: "4:00", Type: "Fight", Athlete: "T J Oshie", X: x2, Y: y2},
	)
	rows, err := ParsePlayByPlay(page, false)
	require.NoError(t, err)
	require.Len(t, rows, 5, "missed shot without location dropped")

	assert.Equal(t, "ALEX OVECHKIN", rows[0].Player)
	assert.Equal(t, pbp.MaxX, rows[0].X)
	assert.Equal(t, pbp.MinY, rows[0].Y)

	assert.Equal(t, pbp.TypeBlock, rows[1].Type)
	assert.Equal(t, "T.J. OSHIE", rows[1].Player)
	assert.Equal(t, 1380, rows[1].GameSeconds)
	assert.Equal(t, 0, rows[1].Version)
	assert.Equal(t, 1, rows[2].Version)

	assert.Equal(t, "Fight", rows[3].Type, "unmapped types pass through")
	assert.Equal(t, pbp.ShootoutSeconds, rows[4].GameSeconds)

	playoff, err := ParsePlayByPlay(page, true)
	require.NoError(t, err)
	assert.Equal(t, 4800, playoff[4].GameSeconds)
}

func TestParsePlayByPlayStructural(t *testing.T) {
	_, err := ParsePlayByPlay([]byte(`<html><body>Game not found</body></html>`), false)
	assert.ErrorIs(t, err, pbp.ErrStructural)

	_, err = ParsePlayByPlay([]byte(`{"playGrps":[[{"id":"1"}]],"tms":{}}`), false)
	assert.ErrorIs(t, err, pbp.ErrStructural, "clocks without plays")

	_, err = ParsePlayByPlay([]byte(`{"playGrps":[[{"id":"1"}]],"tms":{},"plays":[{"id":,"st":1}`), false)
	assert.ErrorIs(t, err, pbp.ErrStructural)
}

func TestParseScoreboard(t *testing.T) {
	games, err := ParseScoreboard(espntest.Scoreboard(
		espntest.Card{ID: "401559261", Away: "Lightning", Home: "Panthers"},
		espntest.Card{ID: "401559262", Away: "Maple Leafs", Home: "Golden Knights"},
		espntest.Card{ID: "401559263", Away: "L.A", Home: "Nordiques"},
	))
	require.NoError(t, err)
	require.Len(t, games, 3)

	assert.Equal(t, ScoreboardGame{ESPNID: "401559261", Away: "TBL", Home: "FLA"}, games[0])
	assert.Equal(t, ScoreboardGame{ESPNID: "401559262", Away: "TOR", Home: "VGK"}, games[1])
	assert.Equal(t, "LAK", games[2].Away)
	assert.Equal(t, TeamUnknown, games[2].Home)
}

func TestTeamAbbreviation(t *testing.T) {
	tests := map[string]string{
		"Blue Jackets": "CBJ",
		"RED WINGS":    "DET",
		"Mammoth":      "UTA",
		"Jets":         "WPG",
		"T.B":          "TBL",
		"NJ":           "NJD",
		"SJS":          "SJS",
		"Whalers":      TeamUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, TeamAbbreviation(in), in)
	}
	assert.Equal(t, "WINNIPEG JETS", CanonicalTeamName("Atlanta Thrashers"))
	assert.Equal(t, "ARIZONA COYOTES", CanonicalTeamName("PHOENIX COYOTES"))
	assert.Equal(t, "ST. LOUIS BLUES", CanonicalTeamName("ST LOUIS BLUES"))
	assert.Equal(t, "LAK", CanonicalAbbreviation("l.a"))
}

func TestIngesterCoordinates(t *testing.T) {
	var scoreboards atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/scoreboard", func(w http.ResponseWriter, r *http.Request) {
		scoreboards.Add(1)
		assert.Equal(t, "20231014", r.URL.Query().Get("date"))
		w.Write(espntest.Scoreboard(
			espntest.Card{ID: "401559200", Away: "Rangers", Home: "Sabres"},
			espntest.Card{ID: "401559261", Away: "Lightning", Home: "Panthers"},
		))
	})
	mux.HandleFunc("/playbyplay/_/gameId/401559261", func(w http.ResponseWriter, r *http.Request) {
		w.Write(espntest.SamplePlayByPlay())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(fetch.NewHTTPFetcher(fetch.Options{RequestsPerSecond: 1000}), srv.URL)
	ing := NewIngester(client)
	ref := GameRef{
		GameID: "2023020001",
		Date:   time.Date(2023, 10, 14, 0, 0, 0, 0, time.UTC),
		Home:   "FLA",
		Away:   "T.B",
	}

	for i := 0; i < 2; i++ {
		feed, err := ing.Coordinates(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, "401559261", feed.ESPNID)
		assert.Len(t, feed.Rows, 6)
	}
	assert.Equal(t, int32(1), scoreboards.Load(), "resolved id is remembered")

	_, err := ing.Coordinates(context.Background(), GameRef{
		GameID: "2023020002", Date: ref.Date, Home: "BOS", Away: "CHI",
	})
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = ing.Coordinates(context.Background(), GameRef{GameID: "2023020003"})
	assert.ErrorIs(t, err, ErrGameNotFound)
}
