package espn

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fortuna/puckline/internal/pbp"
)

// GameRef identifies an NHL game well enough to find it on ESPN.
type GameRef struct {
	GameID string
	Date   time.Time
	Home   string // abbreviation
	Away   string
}

// Ingester resolves ESPN ids and fetches coordinates for NHL games.
type Ingester struct {
	client *Client
	ids    sync.Map // NHL game id -> ESPN id
}

// NewIngester wraps a client.
func NewIngester(c *Client) *Ingester {
	return &Ingester{client: c}
}

// Coordinates returns ESPN's coordinate rows for the game. Resolved ids are
// remembered, so live polling and retries skip the scoreboard. A game ESPN
// does not list fails with ErrGameNotFound.
func (i *Ingester) Coordinates(ctx context.Context, ref GameRef) (*PlayByPlay, error) {
	espnID, err := i.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	feed, err := i.client.PlayByPlay(ctx, espnID, pbp.IsPlayoff(ref.GameID))
	if err != nil {
		return nil, err
	}
	log.Printf("[espn] ✓ game %s (espn %s): %d coordinate rows", ref.GameID, espnID, len(feed.Rows))
	return feed, nil
}

func (i *Ingester) resolve(ctx context.Context, ref GameRef) (string, error) {
	if v, ok := i.ids.Load(ref.GameID); ok {
		return v.(string), nil
	}
	if ref.Date.IsZero() {
		return "", fmt.Errorf("game %s has no date: %w", ref.GameID, ErrGameNotFound)
	}
	espnID, err := i.client.LookupGameID(ctx, ref.Date, ref.Home, ref.Away)
	if err != nil {
		return "", fmt.Errorf("game %s: %w", ref.GameID, err)
	}
	i.ids.Store(ref.GameID, espnID)
	return espnID, nil
}
