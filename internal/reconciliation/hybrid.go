package reconciliation

import (
	"log"
	"sort"

	"github.com/fortuna/puckline/internal/pbp"
)

var hybridTypes = map[string]bool{
	pbp.TypeShot:    true,
	pbp.TypeHit:     true,
	pbp.TypeBlock:   true,
	pbp.TypeMiss:    true,
	pbp.TypeGive:    true,
	pbp.TypeTake:    true,
	pbp.TypeGoal:    true,
	pbp.TypePenalty: true,
	pbp.TypeFaceoff: true,
}

// MergeHybrid combines two partial coordinate tables. Rows are outer-joined
// on (game seconds, type, period, version, player); API coordinates win
// where both sides have the row. ESPN sometimes draws the rink mirrored, so
// when most matched pairs disagree only in sign on an axis every ESPN value
// on that axis is negated first. Pairs at center ice carry no signal and are
// ignored for that vote.
func MergeHybrid(api, espn []pbp.CoordRow) []pbp.CoordRow {
	fromAPI := make(map[coordKey]pbp.CoordRow, len(api))
	for _, r := range api {
		fromAPI[rowKey(r)] = r
	}

	var xVotes, xFlips, yVotes, yFlips int
	for _, r := range espn {
		a, ok := fromAPI[rowKey(r)]
		if !ok {
			continue
		}
		if a.X != 0 {
			xVotes++
			if a.X == -r.X {
				xFlips++
			}
		}
		if a.Y != 0 {
			yVotes++
			if a.Y == -r.Y {
				yFlips++
			}
		}
	}
	flipX := xVotes > 0 && xFlips*2 > xVotes
	flipY := yVotes > 0 && yFlips*2 > yVotes
	if flipX || flipY {
		log.Printf("[reconcile] espn coordinates mirrored (x=%t y=%t)", flipX, flipY)
	}

	seen := make(map[coordKey]bool, len(api)+len(espn))
	out := make([]pbp.CoordRow, 0, len(api)+len(espn))
	for _, r := range api {
		k := rowKey(r)
		if !hybridTypes[r.Type] || seen[k] {
			continue
		}
		seen[k] = true
		r.Source = pbp.SourceAPI
		out = append(out, r)
	}
	for _, r := range espn {
		k := rowKey(r)
		if !hybridTypes[r.Type] || seen[k] {
			continue
		}
		seen[k] = true
		if flipX {
			r.X = -r.X
		}
		if flipY {
			r.Y = -r.Y
		}
		r.Source = pbp.SourceESPN
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].GameSeconds < out[j].GameSeconds
	})
	return out
}

func rowKey(r pbp.CoordRow) coordKey {
	return coordKey{r.Player, r.GameSeconds, r.Version, r.Period, r.Type}
}
