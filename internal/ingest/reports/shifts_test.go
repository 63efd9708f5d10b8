package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/puckline/internal/ingest/reports/reportstest"
	"github.com/fortuna/puckline/internal/pbp"
)

func findShift(shifts []pbp.Shift, player string, period int) (pbp.Shift, bool) {
	for _, s := range shifts {
		if s.Player == player && s.Period == period {
			return s, true
		}
	}
	return pbp.Shift{}, false
}

func TestParseShiftsSampleGame(t *testing.T) {
	game := reportstest.SampleGame()
	sl, err := ParseShifts(ShiftInput{
		GameID: game.GameID,
		Home:   game.HomeShifts,
		Away:   game.AwayShifts,
		Roster: sampleRoster(t),
	})
	require.NoError(t, err)

	assert.Equal(t, "FLORIDA PANTHERS", sl.HomeTeamName)
	assert.Equal(t, "TAMPA BAY LIGHTNING", sl.AwayTeamName)
	assert.Equal(t, -1, sl.SettledSeconds)
	assert.Len(t, sl.Shifts, 9)

	goalie, ok := findShift(sl.Shifts, "ANDREI VASILEVSKIY", 1)
	require.True(t, ok)
	assert.True(t, goalie.Goalie)
	assert.Equal(t, pbp.Away, goalie.Venue)
	assert.Equal(t, "88", goalie.Number)

	point, ok := findShift(sl.Shifts, "BRAYDEN POINT", 1)
	require.True(t, ok)
	assert.False(t, point.Goalie)
	assert.Equal(t, "0:00", point.Start)
	assert.Equal(t, "10:00", point.End)

	require.Len(t, sl.Changes, 5)
	type slot struct {
		venue pbp.Venue
		gs    int
	}
	var got []slot
	for _, c := range sl.Changes {
		got = append(got, slot{c.Venue, c.GameSeconds})
	}
	assert.Equal(t, []slot{
		{pbp.Away, 0}, {pbp.Home, 0}, {pbp.Away, 600}, {pbp.Away, 1200}, {pbp.Home, 1200},
	}, got)

	opening := sl.Changes[0]
	assert.Equal(t, "BRAYDEN POINT, VICTOR HEDMAN, NIKITA KUCHEROV, ANDREI VASILEVSKIY", opening.On)
	assert.Equal(t, "21, 77, 86, 88", opening.OnNumbers)
	assert.Equal(t, 4, opening.NumberOn)
	assert.Zero(t, opening.NumberOff)

	lineChange := sl.Changes[2]
	assert.Equal(t, "10:00", lineChange.Clock)
	assert.Equal(t, "STEVEN STAMKOS", lineChange.On)
	assert.Equal(t, "BRAYDEN POINT", lineChange.Off)
	assert.Equal(t, "TAMPA BAY LIGHTNING", lineChange.Team)
}

func TestParseShiftsRepairs(t *testing.T) {
	away := reportstest.ShiftsPage(reportstest.Lightning.Name, []reportstest.PlayerShifts{
		{Heading: "21 POINT, BRAYDEN", Shifts: []reportstest.ShiftRow{
			{Number: 1, Period: "1", Start: "15:00 / 5:00", End: "28:10 / -8:10", Duration: "13:10"},
			{Number: 2, Period: "2", Start: "1:30 / 18:30", End: "&nbsp;", Duration: "0:40"},
			{Number: 3, Period: "3", Start: "5:00 / 15:00", End: "4:00 / 16:00", Duration: "1:00"},
			{Number: 4, Period: "3", Start: "9:00 / 11:00", End: "8:55 / 11:05", Duration: "-0:05"},
			{Number: 5, Period: "5", Start: "0:00 / 0:00", End: "0:00 / 0:00", Duration: "0:00"},
			{Number: 6, Period: "OT", Start: "1:00 / 4:00", End: "1:45 / 3:15", Duration: "0:45"},
		}},
		{Heading: "88 VASILEVSKIY, ANDREI", Shifts: []reportstest.ShiftRow{
			{Number: 1, Period: "1", Start: "0:12 / 19:48", End: "20:00 / 0:00", Duration: "19:48"},
			{Number: 2, Period: "2", Start: "0:00 / 20:00", End: "20:00 / 0:00", Duration: "20:00"},
		}},
	})
	sl, err := ParseShifts(ShiftInput{
		GameID: "2023020001",
		Home:   reportstest.SampleGame().HomeShifts,
		Away:   away,
		Roster: sampleRoster(t),
	})
	require.NoError(t, err)

	clamped, ok := findShift(sl.Shifts, "BRAYDEN POINT", 1)
	require.True(t, ok)
	assert.Equal(t, "20:00", clamped.End, "overflowing end clock")

	filled, ok := findShift(sl.Shifts, "BRAYDEN POINT", 2)
	require.True(t, ok)
	assert.Equal(t, "2:10", filled.End, "blank end is start plus duration")

	reversed, ok := findShift(sl.Shifts, "BRAYDEN POINT", 3)
	require.True(t, ok)
	assert.Equal(t, "5:00", reversed.Start)
	assert.Equal(t, "20:00", reversed.End, "end before start runs to the buzzer")

	ot, ok := findShift(sl.Shifts, "BRAYDEN POINT", 4)
	require.True(t, ok)
	assert.Equal(t, 6, ot.ShiftNumber)

	_, ok = findShift(sl.Shifts, "BRAYDEN POINT", 5)
	assert.False(t, ok, "invalid period dropped")

	var pointShifts int
	for _, s := range sl.Shifts {
		if s.Player == "BRAYDEN POINT" {
			pointShifts++
		}
	}
	assert.Equal(t, 4, pointShifts, "negative duration dropped")

	goalie, ok := findShift(sl.Shifts, "ANDREI VASILEVSKIY", 1)
	require.True(t, ok)
	assert.Equal(t, "0:00", goalie.Start, "lone goalie starts the period")
}

func TestParseShiftsNoShiftData(t *testing.T) {
	game := reportstest.SampleGame()
	_, err := ParseShifts(ShiftInput{
		GameID: game.GameID,
		Home:   reportstest.EmptyShifts(game.Home.Name),
		Away:   game.AwayShifts,
		Roster: sampleRoster(t),
	})
	assert.ErrorIs(t, err, pbp.ErrNoShiftData)
}

func TestParseShiftsLive(t *testing.T) {
	game := reportstest.SampleGame()
	away := reportstest.ShiftsPage(game.Away.Name, []reportstest.PlayerShifts{
		{
			Heading: "21 POINT, BRAYDEN",
			Shifts:  []reportstest.ShiftRow{{Number: 1, Period: "1", Start: "0:00 / 20:00", End: "10:00 / 10:00", Duration: "10:00"}},
			Summary: []reportstest.PeriodSummary{
				{"1", "1", "10:00", "10:00", "10:00", ""},
				{"2", "0", "", "4:00", "4:00", ""},
			},
		},
		{
			Heading: "88 VASILEVSKIY, ANDREI",
			Shifts:  []reportstest.ShiftRow{{Number: 1, Period: "1", Start: "0:00 / 20:00", End: "12:00 / 8:00", Duration: "12:00"}},
			Summary: []reportstest.PeriodSummary{{"1", "1", "12:00", "12:00", "12:00", ""}},
		},
	})
	home := reportstest.ShiftsPage(game.Home.Name, []reportstest.PlayerShifts{
		{
			Heading: "5 EKBLAD, AARON",
			Shifts:  []reportstest.ShiftRow{{Number: 1, Period: "1", Start: "0:00 / 20:00", End: "15:30 / 4:30", Duration: "15:30"}},
			Summary: []reportstest.PeriodSummary{{"1", "1", "15:30", "15:30", "15:30", ""}},
		},
		{
			Heading: "19 TKACHUK, MATTHEW",
			Summary: []reportstest.PeriodSummary{{"1", "0", "", "3:00", "3:00", ""}},
		},
	})
	summary := reportstest.SummaryPage(game.Away, game.Home,
		[]reportstest.GoalieLine{{Number: "88", Name: "VASILEVSKIY, ANDREI", TOI: "12:00"}},
		[]reportstest.GoalieLine{{Number: "72", Name: "BOBROVSKY, SERGEI", TOI: "15:30"}},
	)

	sl, err := ParseShifts(ShiftInput{
		GameID:  game.GameID,
		Home:    home,
		Away:    away,
		Summary: summary,
		Roster:  sampleRoster(t),
		Live:    true,
	})
	require.NoError(t, err)

	synthetic, ok := findShift(sl.Shifts, "BRAYDEN POINT", 2)
	require.True(t, ok, "zero-shift period becomes a synthetic shift")
	assert.Equal(t, 2, synthetic.ShiftNumber)
	assert.Equal(t, "0:00", synthetic.Start)
	assert.Equal(t, "4:00", synthetic.End)

	_, ok = findShift(sl.Shifts, "MATTHEW TKACHUK", 1)
	assert.False(t, ok, "no synthetic shift without a reported one")

	backfilled, ok := findShift(sl.Shifts, "SERGEI BOBROVSKY", 1)
	require.True(t, ok)
	assert.True(t, backfilled.Goalie)
	assert.Equal(t, pbp.Home, backfilled.Venue)
	assert.Equal(t, "0:00", backfilled.Start)
	assert.Equal(t, "15:30", backfilled.End)

	assert.Equal(t, 930, sl.SettledSeconds)
	require.NotEmpty(t, sl.Changes)
	for _, c := range sl.Changes {
		assert.LessOrEqual(t, c.GameSeconds, 930)
	}
	last := sl.Changes[len(sl.Changes)-1]
	assert.Equal(t, pbp.Home, last.Venue)
	assert.Equal(t, "AARON EKBLAD, SERGEI BOBROVSKY", last.Off)
}

func TestParseShiftsLiveGoalieBackfillPerPeriod(t *testing.T) {
	game := reportstest.SampleGame()
	full := func(n int, period string) reportstest.ShiftRow {
		return reportstest.ShiftRow{Number: n, Period: period, Start: "0:00 / 20:00", End: "20:00 / 0:00", Duration: "20:00"}
	}
	early := func(n int, period string) reportstest.ShiftRow {
		return reportstest.ShiftRow{Number: n, Period: period, Start: "0:00 / 20:00", End: "5:00 / 15:00", Duration: "5:00"}
	}
	periodOne := []reportstest.PeriodSummary{{"1", "1", "20:00", "20:00", "20:00", ""}}

	// The away goalie's third-period shift is not reported yet.
	away := reportstest.ShiftsPage(game.Away.Name, []reportstest.PlayerShifts{
		{Heading: "21 POINT, BRAYDEN", Shifts: []reportstest.ShiftRow{full(1, "1"), full(2, "2"), early(3, "3")}, Summary: periodOne},
		{Heading: "88 VASILEVSKIY, ANDREI", Shifts: []reportstest.ShiftRow{full(1, "1"), full(2, "2")}, Summary: periodOne},
	})
	home := reportstest.ShiftsPage(game.Home.Name, []reportstest.PlayerShifts{
		{Heading: "5 EKBLAD, AARON", Shifts: []reportstest.ShiftRow{full(1, "1"), full(2, "2"), early(3, "3")}, Summary: periodOne},
		{Heading: "72 BOBROVSKY, SERGEI", Shifts: []reportstest.ShiftRow{full(1, "1"), full(2, "2"), early(3, "3")}, Summary: periodOne},
	})
	summary := reportstest.SummaryPage(game.Away, game.Home,
		[]reportstest.GoalieLine{{Number: "88", Name: "VASILEVSKIY, ANDREI", TOI: "45:00"}},
		[]reportstest.GoalieLine{{Number: "72", Name: "BOBROVSKY, SERGEI", TOI: "45:00"}},
	)

	sl, err := ParseShifts(ShiftInput{
		GameID:  game.GameID,
		Home:    home,
		Away:    away,
		Summary: summary,
		Roster:  sampleRoster(t),
		Live:    true,
	})
	require.NoError(t, err)

	third, ok := findShift(sl.Shifts, "ANDREI VASILEVSKIY", 3)
	require.True(t, ok, "goalieless period repaired")
	assert.True(t, third.Goalie)
	assert.Equal(t, 3, third.ShiftNumber)
	assert.Equal(t, "0:00", third.Start)
	assert.Equal(t, "5:00", third.End)

	perPeriod := map[string]map[int]int{}
	for _, sh := range sl.Shifts {
		if !sh.Goalie {
			continue
		}
		if perPeriod[sh.Player] == nil {
			perPeriod[sh.Player] = map[int]int{}
		}
		perPeriod[sh.Player][sh.Period]++
	}
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, perPeriod["ANDREI VASILEVSKIY"], "covered periods untouched")
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, perPeriod["SERGEI BOBROVSKY"])
}

func TestGoalielessPeriods(t *testing.T) {
	ts := &teamShifts{shifts: []rawShift{
		{name: "SKATER", period: "1"},
		{name: "GOALIE", period: "1"},
		{name: "SKATER", period: "2"},
		{name: "SKATER", period: "OT"},
	}}
	isGoalie := func(name string) bool { return name == "GOALIE" }
	assert.Equal(t, []int{2, 4}, ts.goalielessPeriods(isGoalie))
}

func TestParseShiftsLiveRequiresSummaryCells(t *testing.T) {
	game := reportstest.SampleGame()
	_, err := ParseShifts(ShiftInput{
		GameID: game.GameID,
		Home:   game.HomeShifts,
		Away:   game.AwayShifts,
		Roster: sampleRoster(t),
		Live:   true,
	})
	assert.ErrorIs(t, err, pbp.ErrNoShiftData)
}

func TestClampClock(t *testing.T) {
	assert.Equal(t, "20:00", clampClock("28:10"))
	assert.Equal(t, "20:00", clampClock("20:00"))
	assert.Equal(t, "19:59", clampClock("19:59"))
	assert.Equal(t, "20:00", clampClock("junk"))
}
