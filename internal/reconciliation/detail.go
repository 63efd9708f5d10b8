package reconciliation

import (
	"regexp"
	"strings"

	"github.com/fortuna/puckline/internal/pbp"
)

var (
	zonePattern    = regexp.MustCompile(`(\S+?) Zone`)
	penaltyPattern = regexp.MustCompile(`\((.*?)\)`)
)

// describe derives event_detail, event_zone and event_length.
func describe(rows []pbp.Row) {
	for i := range rows {
		r := &rows[i]
		r.EventDetail = eventDetail(r.Type, r.Description)
		r.EventZone = eventZone(r.Description)
		if i+1 < len(rows) {
			r.EventLength = max(rows[i+1].GameSeconds-r.GameSeconds, 0)
		} else {
			r.EventLength = 0
		}
	}
}

func eventDetail(eventType, description string) string {
	part := func(sep string, n int) string {
		parts := strings.Split(description, sep)
		if len(parts) <= n {
			return pbp.Blank
		}
		return orBlank(strings.TrimSpace(parts[n]))
	}

	switch eventType {
	case pbp.TypeShot, pbp.TypeBlock, pbp.TypeMiss, pbp.TypeGoal:
		return part(", ", 1)
	case pbp.TypePStart, pbp.TypePEnd, pbp.TypeSOC, pbp.TypeGEnd:
		return part(": ", 1)
	case pbp.TypePenalty:
		if m := penaltyPattern.FindStringSubmatch(description); m != nil {
			return orBlank(m[1])
		}
		return pbp.Blank
	case pbp.TypeChange:
		return part(" - ", 0)
	}
	return pbp.Blank
}

// eventZone reads "Off. Zone" as "Off".
func eventZone(description string) string {
	m := zonePattern.FindStringSubmatch(description)
	if m == nil {
		return pbp.Blank
	}
	return orBlank(strings.ReplaceAll(m[1], ".", ""))
}
