package nhlapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/puckline/internal/cache"
	"github.com/fortuna/puckline/internal/fetch"
	"github.com/fortuna/puckline/internal/ingest/nhlapi/nhlapitest"
	"github.com/fortuna/puckline/internal/pbp"
)

func findRow(rows []pbp.CoordRow, player, eventType string) (pbp.CoordRow, bool) {
	for _, r := range rows {
		if r.Player == player && r.Type == eventType {
			return r, true
		}
	}
	return pbp.CoordRow{}, false
}

func TestParsePlayByPlaySample(t *testing.T) {
	feed, err := ParsePlayByPlay(nhlapitest.SampleFeed())
	require.NoError(t, err)
	require.NoError(t, feed.Validate())

	assert.Equal(t, 2023020001, feed.GameID)
	assert.Equal(t, "FLA", feed.HomeTeam)
	assert.Equal(t, "TBL", feed.AwayTeam)
	assert.Len(t, feed.Rows, 6, "period markers carry no player")
	assert.Equal(t, 8476453, feed.Roster["NIKITA KUCHEROV"])

	shot, ok := findRow(feed.Rows, "NIKITA KUCHEROV", pbp.TypeShot)
	require.True(t, ok)
	assert.Equal(t, 300, shot.GameSeconds)
	assert.Equal(t, 1, shot.Period)
	assert.Equal(t, 70, shot.X)
	assert.Equal(t, -5, shot.Y)
	assert.Equal(t, pbp.SourceAPI, shot.Source)
	assert.True(t, shot.HasXY)

	faceoff, ok := findRow(feed.Rows, "ALEKSANDER BARKOV", pbp.TypeFaceoff)
	require.True(t, ok)
	assert.Equal(t, 720, faceoff.GameSeconds)

	for i := 1; i < len(feed.Rows); i++ {
		a, b := feed.Rows[i-1], feed.Rows[i]
		assert.True(t, a.Period < b.Period || (a.Period == b.Period && a.GameSeconds <= b.GameSeconds), "rows sorted")
	}
}

func TestParsePlayByPlayRules(t *testing.T) {
	players := []nhlapitest.Player{
		{ID: 8476453, First: "Nikita", Last: "Kucherov"},
		{ID: 8480222, First: "Sebastian", Last: "Aho"},
	}
	at := nhlapitest.At
	x1, y1 := at(120, -50)
	x2, y2 := at(10, 10)
	plays := []nhlapitest.Play{
		{Period: 1, Time: "01:00", Key: "shot-on-goal", PlayerID: 8476453, Field: "shootingPlayerId", X: x1, Y: y1},
		{Period: 1, Time: "02:00", Key: "shot-on-goal", PlayerID: 8476453, Field: "shootingPlayerId", X: x2, Y: y2},
		{Period: 1, Time: "02:00", Key: "shot-on-goal", PlayerID: 8476453, Field: "shootingPlayerId", X: x2, Y: y2},
		{Period: 1, Time: "03:00", Key: "faceoff", PlayerID: 8480222, Field: "winningPlayerId"},
		{Period: 1, Time: "04:00", Key: "", Code: 503, PlayerID: 8480222, Field: "hittingPlayerId", X: x2, Y: y2},
		{Period: 1, Time: "05:00", Key: "missed-shot", PlayerID: 8476453, Field: "shootingPlayerId"},
		{Period: 1, Time: "06:00", Key: "shot-on-goal", PlayerID: 999, Field: "shootingPlayerId", X: x2, Y: y2},
		{Period: 5, Time: "00:00", Key: "shot-on-goal", PlayerID: 8476453, Field: "shootingPlayerId", X: x2, Y: y2},
	}
	feed, err := ParsePlayByPlay(nhlapitest.Feed(2023020500, 2, "CAR", "TBL", players, plays))
	require.NoError(t, err)

	clipped, ok := findRow(feed.Rows, "NIKITA KUCHEROV", pbp.TypeShot)
	require.True(t, ok)
	assert.Equal(t, 99, clipped.X)
	assert.Equal(t, -42, clipped.Y)

	var versions []int
	for _, r := range feed.Rows {
		if r.Type == pbp.TypeShot && r.GameSeconds == 120 {
			versions = append(versions, r.Version)
		}
	}
	assert.Equal(t, []int{0, 1}, versions)

	faceoff, ok := findRow(feed.Rows, "SEBASTIAN AHO SWE", pbp.TypeFaceoff)
	require.True(t, ok, "id override names the Hurricanes defenceman")
	assert.Equal(t, 0, faceoff.X)
	assert.Equal(t, 0, faceoff.Y)

	_, ok = findRow(feed.Rows, "SEBASTIAN AHO SWE", pbp.TypeHit)
	assert.True(t, ok, "typeCode fallback")

	for _, r := range feed.Rows {
		assert.NotEqual(t, 999, r.PlayerID, "unknown player dropped")
		if r.Period == 5 {
			assert.Equal(t, pbp.ShootoutSeconds, r.GameSeconds)
		}
	}

	assert.Equal(t, 1, feed.MissingCoords)
	assert.ErrorIs(t, feed.Validate(), pbp.ErrStructural)
}

func TestParsePlayByPlayStructural(t *testing.T) {
	_, err := ParsePlayByPlay([]byte(`{"id": 1, "rosterSpots": []}`))
	assert.ErrorIs(t, err, pbp.ErrStructural)

	_, err = ParsePlayByPlay([]byte(`<html>oops</html>`))
	assert.ErrorIs(t, err, pbp.ErrStructural)

	feed, err := ParsePlayByPlay([]byte(`{"id": 1, "plays": []}`))
	require.NoError(t, err)
	assert.Empty(t, feed.Rows)
}

func TestMapEventType(t *testing.T) {
	tests := []struct {
		key  string
		code int
		want string
	}{
		{"shot-on-goal", 0, pbp.TypeShot},
		{"blocked-shot", 0, pbp.TypeBlock},
		{"missed-shot", 0, pbp.TypeMiss},
		{"delayed-penalty", 0, pbp.TypePenalty},
		{"Face-Off", 0, pbp.TypeFaceoff},
		{"", 505, pbp.TypeShot},
		{"", 508, pbp.TypeTake},
		{"shootout-complete", 0, TypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapEventType(tt.key, tt.code), tt.key)
	}
}

func TestClientPlayByPlayAndHandedness(t *testing.T) {
	var landings atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/gamecenter/2023020001/play-by-play", func(w http.ResponseWriter, r *http.Request) {
		w.Write(nhlapitest.SampleFeed())
	})
	mux.HandleFunc("/player/8476453/landing", func(w http.ResponseWriter, r *http.Request) {
		landings.Add(1)
		w.Write([]byte(`{"playerId": 8476453, "shootsCatches": "L"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	memo := cache.NewMemory()
	c := New(fetch.NewHTTPFetcher(fetch.Options{RequestsPerSecond: 1000}), srv.URL).WithMemo(memo)

	feed, err := c.PlayByPlay(context.Background(), "2023020001")
	require.NoError(t, err)
	assert.Len(t, feed.Rows, 6)

	for i := 0; i < 3; i++ {
		hand, err := c.Handedness(context.Background(), 8476453)
		require.NoError(t, err)
		assert.Equal(t, "L", hand)
	}
	assert.Equal(t, int32(1), landings.Load())

	// A fresh client sharing the memo never hits the endpoint.
	fresh := New(fetch.NewHTTPFetcher(fetch.Options{RequestsPerSecond: 1000}), srv.URL).WithMemo(memo)
	hand, err := fresh.Handedness(context.Background(), 8476453)
	require.NoError(t, err)
	assert.Equal(t, "L", hand)
	assert.Equal(t, int32(1), landings.Load())

	_, err = c.Handedness(context.Background(), 1)
	assert.True(t, fetch.IsNotFound(err))
}
