package espn

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/puckline/internal/fetch"
)

// BaseURL is ESPN's NHL site.
const BaseURL = "https://www.espn.com/nhl"

// ErrGameNotFound means the scoreboard for the date has no card for the
// requested matchup.
var ErrGameNotFound = errors.New("espn game not found")

// Client handles ESPN page requests.
// Note: production wiring passes a fetch.CurlFetcher because ESPN blocks
// Go's HTTP client fingerprint.
type Client struct {
	fetcher fetch.Fetcher
	baseURL string
}

// New creates a client. An empty baseURL uses BaseURL.
func New(f fetch.Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{fetcher: f, baseURL: baseURL}
}

// ScoreboardURL is the scoreboard page for a calendar date.
func (c *Client) ScoreboardURL(date time.Time) string {
	return fmt.Sprintf("%s/scoreboard?date=%s", c.baseURL, date.Format("20060102"))
}

// PlayByPlayURL is the play-by-play page for an ESPN game id.
func (c *Client) PlayByPlayURL(espnID string) string {
	return fmt.Sprintf("%s/playbyplay/_/gameId/%s", c.baseURL, espnID)
}

// Scoreboard fetches and parses the scoreboard for date.
func (c *Client) Scoreboard(ctx context.Context, date time.Time) ([]ScoreboardGame, error) {
	body, err := c.fetcher.Fetch(ctx, c.ScoreboardURL(date))
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard %s: %w", date.Format("2006-01-02"), err)
	}
	return ParseScoreboard(body)
}

// LookupGameID finds ESPN's id for the game between home and away on date.
// Team arguments are NHL abbreviations; report spellings such as "T.B" are
// accepted.
func (c *Client) LookupGameID(ctx context.Context, date time.Time, home, away string) (string, error) {
	games, err := c.Scoreboard(ctx, date)
	if err != nil {
		return "", err
	}
	home, away = CanonicalAbbreviation(home), CanonicalAbbreviation(away)
	for _, g := range games {
		if g.Home == home && g.Away == away {
			return g.ESPNID, nil
		}
	}
	log.Printf("[espn] ⚠️  no scoreboard card for %s @ %s on %s (%d cards)",
		away, home, date.Format("2006-01-02"), len(games))
	return "", fmt.Errorf("%s @ %s on %s: %w", away, home, date.Format("2006-01-02"), ErrGameNotFound)
}

// PlayByPlay fetches and parses the coordinate rows for an ESPN game.
func (c *Client) PlayByPlay(ctx context.Context, espnID string, playoff bool) (*PlayByPlay, error) {
	body, err := c.fetcher.Fetch(ctx, c.PlayByPlayURL(espnID))
	if err != nil {
		return nil, fmt.Errorf("fetch espn play-by-play %s: %w", espnID, err)
	}
	rows, err := ParsePlayByPlay(body, playoff)
	if err != nil {
		return nil, fmt.Errorf("espn game %s: %w", espnID, err)
	}
	return &PlayByPlay{ESPNID: espnID, Rows: rows}, nil
}
