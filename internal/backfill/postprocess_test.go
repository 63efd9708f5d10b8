package backfill

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fortuna/puckline/internal/pbp"
)

func TestPostProcessPettersson(t *testing.T) {
	tests := []struct {
		name  string
		event pbp.Event
		want  [3]string
	}{
		{
			name: "defenceman shoots",
			event: pbp.Event{
				Type:        pbp.TypeShot,
				Description: "VAN ONGOAL - #25 PETTERSSON, Slap, Off. Zone, 55 ft.",
				Player1:     petterssonName,
			},
			want: [3]string{petterssonDefence, "", ""},
		},
		{
			name: "forward shoots",
			event: pbp.Event{
				Type:        pbp.TypeShot,
				Description: "VAN ONGOAL - #40 PETTERSSON, Wrist, Off. Zone, 20 ft.",
				Player1:     petterssonName,
			},
			want: [3]string{petterssonName, "", ""},
		},
		{
			name: "defenceman assists on a goal",
			event: pbp.Event{
				Type:        pbp.TypeGoal,
				Description: "VAN #40 PETTERSSON(10), Wrist, Off. Zone, 12 ft. Assists: #25 PETTERSSON(4); #6 BOESER(8)",
				Player1:     petterssonName,
				Player2:     petterssonName,
				Player3:     "BROCK BOESER",
			},
			want: [3]string{petterssonName, petterssonDefence, "BROCK BOESER"},
		},
		{
			name: "defenceman is hit",
			event: pbp.Event{
				Type:        pbp.TypeHit,
				Description: "EDM #97 MCDAVID HIT VAN #25 PETTERSSON, Off. Zone",
				Player1:     "CONNOR MCDAVID",
				Player2:     petterssonName,
			},
			want: [3]string{"CONNOR MCDAVID", petterssonDefence, ""},
		},
		{
			name: "second assist",
			event: pbp.Event{
				Type:        pbp.TypeGoal,
				Description: "VAN #6 BOESER(9), Snap, Off. Zone, 15 ft. Assists: #40 PETTERSSON(11); #25 PETTERSSON",
				Player1:     "BROCK BOESER",
				Player2:     petterssonName,
				Player3:     petterssonName,
			},
			want: [3]string{"BROCK BOESER", petterssonName, petterssonDefence},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &pbp.GameRecord{Rows: []pbp.Row{{Event: tt.event}}}
			PostProcess([]*pbp.GameRecord{rec})
			ev := rec.Rows[0].Event
			assert.Equal(t, tt.want, [3]string{ev.Player1, ev.Player2, ev.Player3})
		})
	}
}

func TestPostProcessSentinels(t *testing.T) {
	rec := &pbp.GameRecord{
		Warning: pbp.WarningNoShiftData,
		Rows: []pbp.Row{{Event: pbp.Event{
			Type:           pbp.TypeShot,
			HomeSkatersRaw: "5 D16 C19 L72 G",
			AwaySkatersRaw: "21 C77 D86 R91 C19 L5 D",
		}}},
	}
	PostProcess([]*pbp.GameRecord{rec, nil})

	row := rec.Rows[0]
	for i := range row.HomeOn {
		assert.Equal(t, pbp.Blank, row.HomeOn[i])
		assert.Equal(t, pbp.Blank, row.AwayOn[i])
	}
	assert.Equal(t, pbp.Blank, row.HomeGoalie)
	assert.Equal(t, pbp.Blank, row.AwayGoalie)
	assert.Equal(t, 3, row.HomeSkaters)
	assert.Equal(t, 6, row.AwaySkaters)
}

func TestPostProcessKeepsOnIceCounts(t *testing.T) {
	rec := &pbp.GameRecord{Rows: []pbp.Row{{
		Event:       pbp.Event{HomeSkatersRaw: "5 D72 G"},
		HomeSkaters: 5,
		HomeGoalie:  "SERGEI BOBROVSKY",
	}}}
	PostProcess([]*pbp.GameRecord{rec})
	assert.Equal(t, 5, rec.Rows[0].HomeSkaters)
	assert.Equal(t, "SERGEI BOBROVSKY", rec.Rows[0].HomeGoalie)
}
