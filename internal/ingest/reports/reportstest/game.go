package reportstest

// Game bundles the report pages for one synthetic game.
type Game struct {
	GameID     string
	Date       string
	Away       Team
	Home       Team
	Roster     []byte
	Events     []byte
	HomeShifts []byte
	AwayShifts []byte
}

// Lightning and Panthers are the two sides of SampleGame.
var (
	Lightning = Team{
		Name: "TAMPA BAY LIGHTNING",
		Abbr: "TBL",
		Players: []Player{
			{"21", "C", "BRAYDEN POINT"},
			{"77", "D", "VICTOR HEDMAN (A)"},
			{"86", "R", "NIKITA KUCHEROV"},
			{"88", "G", "ANDREI VASILEVSKIY"},
			{"91", "C", "STEVEN STAMKOS (C)"},
		},
		Scratches: []Player{{"44", "D", "CALVIN DE HAAN"}},
	}
	Panthers = Team{
		Name: "FLORIDA PANTHERS",
		Abbr: "FLA",
		Players: []Player{
			{"5", "D", "AARON EKBLAD"},
			{"16", "C", "ALEKSANDER BARKOV (C)"},
			{"19", "L", "MATTHEW TKACHUK"},
			{"72", "G", "SERGEI BOBROVSKY"},
		},
	}
)

// SampleGame is one period of Lightning at Panthers: a faceoff, a shot, a
// hit, a Lightning goal after a line change at 10:00, and a Panthers shot.
func SampleGame() Game {
	away, home := Lightning, Panthers

	before := OnIce("21", "C", "77", "D", "86", "R", "88", "G")
	after := OnIce("77", "D", "86", "R", "88", "G", "91", "C")
	homeIce := OnIce("5", "D", "16", "C", "19", "L", "72", "G")

	events := []EventRow{
		{1, "1", "", "0:0020:00", "PSTR", "Period Start- Local time: 7:08 EDT", before, homeIce},
		{2, "1", "EV", "0:0020:00", "FAC", "TBL won Neu. Zone - TBL #21 POINT vs FLA #16 BARKOV", before, homeIce},
		{3, "1", "EV", "5:0015:00", "SHOT", "TBL ONGOAL - #86 KUCHEROV, Wrist, Off. Zone, 30 ft.", before, homeIce},
		{4, "1", "EV", "6:0014:00", "HIT", "FLA #19 TKACHUK HIT TBL #77 HEDMAN, Def. Zone", before, homeIce},
		{5, "1", "EV", "12:008:00", "GOAL", "TBL #91 STAMKOS(1), Wrist, Off. Zone, 12 ft. Assists: #86 KUCHEROV(1); #77 HEDMAN(1)", after, homeIce},
		{6, "1", "EV", "12:008:00", "FAC", "FLA won Neu. Zone - TBL #91 STAMKOS vs FLA #16 BARKOV", after, homeIce},
		{7, "1", "EV", "15:005:00", "SHOT", "FLA ONGOAL - #16 BARKOV, Snap, Off. Zone, 20 ft.", after, homeIce},
		{8, "1", "", "20:000:00", "PEND", "Period End- Local time: 7:48 EDT", after, homeIce},
		{9, "1", "", "20:000:00", "GEND", "Game End- Local time: 7:49 EDT", after, homeIce},
	}

	full := func(n int) ShiftRow {
		return ShiftRow{n, "1", "0:00 / 20:00", "20:00 / 0:00", "20:00"}
	}

	return Game{
		GameID: "2023020001",
		Date:   "Saturday, October 14, 2023",
		Away:   away,
		Home:   home,
		Roster: RosterPage(away, home),
		Events: EventsPage(away, home, "Saturday, October 14, 2023", events),
		AwayShifts: ShiftsPage(away.Name, []PlayerShifts{
			{Heading: "21 POINT, BRAYDEN", Shifts: []ShiftRow{{1, "1", "0:00 / 20:00", "10:00 / 10:00", "10:00"}}},
			{Heading: "77 HEDMAN, VICTOR", Shifts: []ShiftRow{full(1)}},
			{Heading: "86 KUCHEROV, NIKITA", Shifts: []ShiftRow{full(1)}},
			{Heading: "88 VASILEVSKIY, ANDREI", Shifts: []ShiftRow{full(1)}},
			{Heading: "91 STAMKOS, STEVEN", Shifts: []ShiftRow{{1, "1", "10:00 / 10:00", "20:00 / 0:00", "10:00"}}},
		}),
		HomeShifts: ShiftsPage(home.Name, []PlayerShifts{
			{Heading: "5 EKBLAD, AARON", Shifts: []ShiftRow{full(1)}},
			{Heading: "16 BARKOV, ALEKSANDER", Shifts: []ShiftRow{full(1)}},
			{Heading: "19 TKACHUK, MATTHEW", Shifts: []ShiftRow{full(1)}},
			{Heading: "72 BOBROVSKY, SERGEI", Shifts: []ShiftRow{full(1)}},
		}),
	}
}

// EmptyShifts is a TOI report with no shift cells, as shipped for games
// without shift data.
func EmptyShifts(team string) []byte {
	return ShiftsPage(team, nil)
}
