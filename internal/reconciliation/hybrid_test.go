package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/puckline/internal/pbp"
)

func coord(player, eventType string, gs, x, y int, source pbp.CoordinateSource) pbp.CoordRow {
	return pbp.CoordRow{
		Player: player, Type: eventType, GameSeconds: gs, Period: 1,
		X: x, Y: y, HasXY: true, Source: source,
	}
}

func TestMergeHybridMirrored(t *testing.T) {
	api := []pbp.CoordRow{
		coord("BRAYDEN POINT", pbp.TypeFaceoff, 0, 0, 0, pbp.SourceAPI),
		coord("NIKITA KUCHEROV", pbp.TypeShot, 300, 70, -5, pbp.SourceAPI),
		coord("MATTHEW TKACHUK", pbp.TypeHit, 360, -60, 30, pbp.SourceAPI),
	}
	espn := []pbp.CoordRow{
		coord("BRAYDEN POINT", pbp.TypeFaceoff, 0, 0, 0, pbp.SourceESPN),
		coord("NIKITA KUCHEROV", pbp.TypeShot, 300, -70, 5, pbp.SourceESPN),
		coord("MATTHEW TKACHUK", pbp.TypeHit, 360, 60, -30, pbp.SourceESPN),
		coord("STEVEN STAMKOS", pbp.TypeGoal, 720, -80, -2, pbp.SourceESPN),
		coord("STEVEN STAMKOS", pbp.TypeGoal, 720, -80, -2, pbp.SourceESPN),
		coord("ALEKSANDER BARKOV", pbp.TypeStop, 800, 10, 10, pbp.SourceESPN),
	}

	out := MergeHybrid(api, espn)
	require.Len(t, out, 4, "duplicates and untracked types dropped")

	assert.Equal(t, pbp.TypeFaceoff, out[0].Type)
	assert.Equal(t, pbp.SourceAPI, out[1].Source)
	assert.Equal(t, 70, out[1].X)
	assert.Equal(t, -5, out[1].Y)

	goal := out[3]
	assert.Equal(t, pbp.TypeGoal, goal.Type)
	assert.Equal(t, pbp.SourceESPN, goal.Source)
	assert.Equal(t, 80, goal.X, "espn-only rows take the sign correction")
	assert.Equal(t, 2, goal.Y)
}

func TestMergeHybridAligned(t *testing.T) {
	api := []pbp.CoordRow{
		coord("NIKITA KUCHEROV", pbp.TypeShot, 300, 70, -5, pbp.SourceAPI),
	}
	espn := []pbp.CoordRow{
		coord("NIKITA KUCHEROV", pbp.TypeShot, 300, 71, -4, pbp.SourceESPN),
		coord("ALEKSANDER BARKOV", pbp.TypeShot, 900, -74, 11, pbp.SourceESPN),
	}

	out := MergeHybrid(api, espn)
	require.Len(t, out, 2)
	assert.Equal(t, 70, out[0].X, "api wins where both have the row")
	assert.Equal(t, -74, out[1].X)
	assert.Equal(t, 11, out[1].Y)
}

func TestMergeHybridCenterIceDoesNotFlip(t *testing.T) {
	api := []pbp.CoordRow{coord("BRAYDEN POINT", pbp.TypeFaceoff, 0, 0, 0, pbp.SourceAPI)}
	espn := []pbp.CoordRow{
		coord("BRAYDEN POINT", pbp.TypeFaceoff, 0, 0, 0, pbp.SourceESPN),
		coord("NIKITA KUCHEROV", pbp.TypeShot, 300, 71, -4, pbp.SourceESPN),
	}

	out := MergeHybrid(api, espn)
	require.Len(t, out, 2)
	assert.Equal(t, 71, out[1].X)
	assert.Equal(t, -4, out[1].Y)
}

func TestMergeHybridOneSide(t *testing.T) {
	espn := []pbp.CoordRow{coord("NIKITA KUCHEROV", pbp.TypeShot, 300, 71, -4, pbp.SourceESPN)}
	out := MergeHybrid(nil, espn)
	require.Len(t, out, 1)
	assert.Equal(t, pbp.SourceESPN, out[0].Source)

	assert.Empty(t, MergeHybrid(nil, nil))
}
