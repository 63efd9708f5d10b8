package reconciliation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/puckline/internal/ingest/nhlapi"
	"github.com/fortuna/puckline/internal/ingest/nhlapi/nhlapitest"
	"github.com/fortuna/puckline/internal/ingest/reports"
	"github.com/fortuna/puckline/internal/ingest/reports/reportstest"
	"github.com/fortuna/puckline/internal/pbp"
)

// sampleInput parses the sample game's reports and API feed.
func sampleInput(t *testing.T) Input {
	t.Helper()
	game := reportstest.SampleGame()
	roster, err := reports.ParseRoster(game.Roster, "20232024")
	require.NoError(t, err)
	el, err := reports.ParseEvents(game.Events, roster, game.GameID)
	require.NoError(t, err)
	sl, err := reports.ParseShifts(reports.ShiftInput{
		GameID: game.GameID,
		Home:   game.HomeShifts,
		Away:   game.AwayShifts,
		Roster: roster,
	})
	require.NoError(t, err)
	feed, err := nhlapi.ParsePlayByPlay(nhlapitest.SampleFeed())
	require.NoError(t, err)

	return Input{
		GameID:           el.GameID,
		Season:           el.Season,
		GameDate:         el.GameDate,
		HomeTeam:         el.HomeTeam,
		AwayTeam:         el.AwayTeam,
		HomeTeamName:     el.HomeTeamName,
		AwayTeamName:     el.AwayTeamName,
		Playoff:          el.Playoff,
		Events:           el.Events,
		Roster:           roster.Entries,
		Changes:          sl.Changes,
		Coords:           feed.Rows,
		CoordinateSource: pbp.SourceAPI,
		PlayerIDs:        feed.Roster,
	}
}

func findRow(t *testing.T, rows []pbp.Row, eventType string, gs int) pbp.Row {
	t.Helper()
	for _, r := range rows {
		if r.Type == eventType && r.GameSeconds == gs {
			return r
		}
	}
	t.Fatalf("no %s at %d", eventType, gs)
	return pbp.Row{}
}

func TestReconcileSampleGame(t *testing.T) {
	engine := NewEngine()
	rec, err := engine.Reconcile(sampleInput(t))
	require.NoError(t, err)

	assert.Equal(t, "2023020001", rec.GameID)
	assert.Equal(t, pbp.SourceAPI, rec.CoordinateSource)
	assert.True(t, rec.HasOnIce())
	require.Len(t, rec.Rows, 14, "nine events plus five change rows")

	for i, r := range rec.Rows {
		assert.Equal(t, i+1, r.EventIndex, "dense event index")
	}

	types := make([]string, 0, 4)
	for _, r := range rec.Rows[:4] {
		types = append(types, r.Type)
	}
	assert.Equal(t, []string{pbp.TypePStart, pbp.TypeChange, pbp.TypeChange, pbp.TypeFaceoff}, types)
	assert.Equal(t, "TBL", rec.Rows[1].EventTeam, "away change first")
	assert.Equal(t, "FLA", rec.Rows[2].EventTeam)
	assert.Equal(t, 4, rec.Rows[1].NumOn)
	assert.Equal(t, 0, rec.Rows[1].NumOff)
	assert.ElementsMatch(t, []string{"TBL21", "TBL77", "TBL86", "TBL88"},
		strings.Split(rec.Rows[1].PlayersOn, ", "), "team and number tokens")
	assert.Equal(t, pbp.Blank, rec.Rows[1].PlayersOff)

	fac := rec.Rows[3]
	assert.Equal(t, [9]string{
		"ANDREI VASILEVSKIY", "BRAYDEN POINT", "NIKITA KUCHEROV", "VICTOR HEDMAN",
		pbp.Blank, pbp.Blank, pbp.Blank, pbp.Blank, pbp.Blank,
	}, fac.AwayOn)
	assert.Equal(t, "ANDREI VASILEVSKIY", fac.AwayGoalie)
	assert.Equal(t, "SERGEI BOBROVSKY", fac.HomeGoalie)
	assert.Equal(t, 3, fac.HomeSkaters)
	assert.Equal(t, 3, fac.AwaySkaters)
	assert.Equal(t, "3v3", fac.StrengthState)
	assert.Equal(t, "Neu", fac.EventZone)

	shot := findRow(t, rec.Rows, pbp.TypeShot, 300)
	require.True(t, shot.HasCoords())
	assert.Equal(t, 70, *shot.CoordsX)
	assert.Equal(t, -5, *shot.CoordsY)
	assert.Equal(t, pbp.SourceAPI, shot.CoordinateSource)
	assert.Equal(t, "Wrist", shot.EventDetail)
	assert.Equal(t, "Off", shot.EventZone)
	assert.Equal(t, 60, shot.EventLength)

	goal := findRow(t, rec.Rows, pbp.TypeGoal, 720)
	assert.Equal(t, "0v0", goal.ScoreState, "goal row shows the score it changed")
	assert.Contains(t, goal.AwayOn, "STEVEN STAMKOS")
	assert.NotContains(t, goal.AwayOn, "BRAYDEN POINT")
	after := findRow(t, rec.Rows, pbp.TypeFaceoff, 720)
	assert.Equal(t, 1, after.AwayScore)
	assert.Equal(t, "0v1", after.ScoreState)
	assert.False(t, after.HasCoords(), "faceoff winner differs between sources")

	pend := findRow(t, rec.Rows, pbp.TypePEnd, 1200)
	assert.Equal(t, "EvE", pend.StrengthState)
	assert.Equal(t, "7:48 EDT", pend.EventDetail)
	last := rec.Rows[len(rec.Rows)-1]
	assert.Equal(t, pbp.TypeGEnd, last.Type)
	assert.Equal(t, 0, last.EventLength)

	m := engine.GetMetrics()
	assert.Equal(t, 1, m.TotalReconciliations)
	assert.Equal(t, 5, m.PrimaryMatches)
	assert.Zero(t, m.Unlocated)
}

func TestReconcileInvariants(t *testing.T) {
	rec, err := NewEngine().Reconcile(sampleInput(t))
	require.NoError(t, err)

	home, away := 0, 0
	for _, r := range rec.Rows {
		seen := map[string]bool{}
		for _, n := range append(r.HomeOn[:], r.AwayOn[:]...) {
			if n == pbp.Blank {
				continue
			}
			assert.False(t, seen[n], "%s on the ice twice at event %d", n, r.EventIndex)
			seen[n] = true
		}

		if r.HomeGoalie != pbp.Blank && r.AwayGoalie != pbp.Blank {
			assert.GreaterOrEqual(t, r.HomeSkaters+1, 3)
			assert.LessOrEqual(t, r.HomeSkaters+1, 6)
			assert.GreaterOrEqual(t, r.AwaySkaters+1, 3)
			assert.LessOrEqual(t, r.AwaySkaters+1, 6)
		}

		assert.GreaterOrEqual(t, r.HomeScore, home)
		assert.GreaterOrEqual(t, r.AwayScore, away)
		home, away = r.HomeScore, r.AwayScore
	}
}

func TestReconcileNoShiftData(t *testing.T) {
	in := sampleInput(t)
	in.Changes = nil
	in.NoShiftData = true

	engine := NewEngine()
	rec, err := engine.Reconcile(in)
	require.NoError(t, err)

	assert.Equal(t, pbp.WarningNoShiftData, rec.Warning)
	assert.False(t, rec.HasOnIce())
	require.Len(t, rec.Rows, 9)
	for _, r := range rec.Rows {
		assert.NotEqual(t, pbp.TypeChange, r.Type)
		assert.Equal(t, pbp.Blank, r.HomeGoalie)
		assert.Equal(t, pbp.Blank, r.HomeOn[0])
	}

	shot := findRow(t, rec.Rows, pbp.TypeShot, 300)
	require.True(t, shot.HasCoords())
	assert.Equal(t, 70, *shot.CoordsX)
	assert.Equal(t, "0v1", findRow(t, rec.Rows, pbp.TypeFaceoff, 720).ScoreState)
	assert.Equal(t, 1, engine.GetMetrics().NoShiftData)
}

func TestReconcileWithoutCoordinates(t *testing.T) {
	in := sampleInput(t)
	in.Coords = nil
	in.CoordinateSource = ""

	engine := NewEngine()
	rec, err := engine.Reconcile(in)
	require.NoError(t, err)
	assert.Equal(t, pbp.SourceNone, rec.CoordinateSource)
	assert.Equal(t, 4, engine.GetMetrics().Unlocated)
}

func TestReconcileLive(t *testing.T) {
	in := sampleInput(t)
	in.Live = true

	engine := NewEngine()
	rec, err := engine.Reconcile(in)
	require.NoError(t, err)
	require.Len(t, rec.Rows, 11, "rows after the last valid strength state are dropped")
	last := rec.Rows[len(rec.Rows)-1]
	assert.Equal(t, pbp.TypeChange, last.Type)
	assert.Equal(t, "3vE", last.StrengthState)
	assert.Equal(t, 3, engine.GetMetrics().LiveRowsDropped)
}

func TestReconcileLiveGoalieDesync(t *testing.T) {
	in := sampleInput(t)
	in.Live = true
	require.Equal(t, pbp.Home, in.Changes[1].Venue)
	in.Changes[1].OnNumbers = "5, 16, 19"

	rec, err := NewEngine().Reconcile(in)
	require.NoError(t, err)
	require.Len(t, rec.Rows, 4, "shot against a missing goalie cuts the tail")
	assert.Equal(t, pbp.TypeFaceoff, rec.Rows[3].Type)
	assert.Equal(t, "Ev3", rec.Rows[3].StrengthState)
}

func TestReconcileStructural(t *testing.T) {
	_, err := NewEngine().Reconcile(Input{GameID: "2023020001", HomeTeam: "FLA", AwayTeam: "TBL"})
	assert.ErrorIs(t, err, pbp.ErrStructural)

	in := sampleInput(t)
	in.HomeTeam = ""
	_, err = NewEngine().Reconcile(in)
	assert.ErrorIs(t, err, pbp.ErrStructural)
}

func TestResetMetrics(t *testing.T) {
	engine := NewEngine()
	_, err := engine.Reconcile(sampleInput(t))
	require.NoError(t, err)
	require.Equal(t, 1, engine.GetMetrics().TotalReconciliations)

	engine.ResetMetrics()
	assert.Zero(t, engine.GetMetrics().TotalReconciliations)
	assert.Zero(t, engine.GetMetrics().PrimaryMatches)
}
