package pbp

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	periodSeconds = 1200
	// ShootoutSeconds is where overtime shootout rows collapse to.
	ShootoutSeconds = 3900
	// RegularSeasonCutoff drops phantom rows past the end of a regular season game.
	RegularSeasonCutoff = 4000
)

// ParseClock converts "M:SS" into seconds. Stray dashes are ignored and an
// empty clock is 0:00.
func ParseClock(clock string) (int, error) {
	clock = strings.TrimSpace(strings.ReplaceAll(clock, "-", ""))
	if clock == "" {
		return 0, nil
	}
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock %q: %w", clock, ErrStructural)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("clock %q minutes: %w", clock, ErrStructural)
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("clock %q seconds: %w", clock, ErrStructural)
	}
	return minutes*60 + seconds, nil
}

// MustClock is ParseClock for values already validated upstream.
func MustClock(clock string) int {
	secs, err := ParseClock(clock)
	if err != nil {
		return 0
	}
	return secs
}

// FormatClock renders seconds as "M:SS".
func FormatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// GameSeconds is elapsed game time. Periods past regulation overtime in the
// regular season are the shootout and collapse to ShootoutSeconds.
func GameSeconds(period, periodSecs int, playoff bool) int {
	if period < 5 || playoff {
		return (period-1)*periodSeconds + periodSecs
	}
	return ShootoutSeconds
}

// IsPlayoff reports whether a full game id (e.g. 2023030111) is a playoff game.
func IsPlayoff(gameID string) bool {
	return len(gameID) > 5 && gameID[5] == '3'
}

// Season derives "20232024" from a game id starting with 2023.
func Season(gameID string) (string, error) {
	if len(gameID) < 10 {
		return "", fmt.Errorf("game id %q too short", gameID)
	}
	start, err := strconv.Atoi(gameID[:4])
	if err != nil {
		return "", fmt.Errorf("game id %q: %w", gameID, err)
	}
	return fmt.Sprintf("%d%d", start, start+1), nil
}

// SmallID is the report-page suffix of a game id ("2023020001" -> "20001").
func SmallID(gameID string) string {
	if len(gameID) <= 5 {
		return gameID
	}
	return gameID[5:]
}
