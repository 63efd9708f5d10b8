package nhlapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/fortuna/puckline/internal/cache"
	"github.com/fortuna/puckline/internal/fetch"
)

// BaseURL is the public gamecenter API.
const BaseURL = "https://api-web.nhle.com/v1"

const (
	handednessKeyPrefix = "puckline:hand:"
	handednessTTL       = 30 * 24 * time.Hour
)

// Client fetches play-by-play feeds and player landing pages.
type Client struct {
	fetcher fetch.Fetcher
	baseURL string

	hands sync.Map // player id -> "L"/"R"
	memo  cache.Cache
}

// New creates a client. An empty baseURL uses BaseURL.
func New(f fetch.Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{fetcher: f, baseURL: baseURL}
}

// WithMemo shares handedness lookups through c (usually Redis) so that
// concurrent workers and later runs skip the landing endpoint.
func (c *Client) WithMemo(m cache.Cache) *Client {
	c.memo = m
	return c
}

// PlayByPlayURL is the feed location for a game.
func (c *Client) PlayByPlayURL(gameID string) string {
	return fmt.Sprintf("%s/gamecenter/%s/play-by-play", c.baseURL, gameID)
}

// PlayByPlay fetches and parses the feed for gameID.
func (c *Client) PlayByPlay(ctx context.Context, gameID string) (*PlayByPlay, error) {
	body, err := c.fetcher.Fetch(ctx, c.PlayByPlayURL(gameID))
	if err != nil {
		return nil, fmt.Errorf("fetch play-by-play %s: %w", gameID, err)
	}
	feed, err := ParsePlayByPlay(body)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", gameID, err)
	}
	return feed, nil
}

type landing struct {
	PlayerID      int    `json:"playerId"`
	ShootsCatches string `json:"shootsCatches"`
}

// Handedness returns the shooting (or catching) hand of a player, "L" or
// "R". Results are memoized for the life of the client and in the shared
// memo when one is configured.
func (c *Client) Handedness(ctx context.Context, playerID int) (string, error) {
	if v, ok := c.hands.Load(playerID); ok {
		return v.(string), nil
	}

	key := handednessKeyPrefix + strconv.Itoa(playerID)
	if c.memo != nil {
		v, err := c.memo.Get(ctx, key)
		if err == nil {
			c.hands.Store(playerID, v)
			return v, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Printf("[nhlapi] ⚠️  handedness memo read failed: %v", err)
		}
	}

	body, err := c.fetcher.Fetch(ctx, fmt.Sprintf("%s/player/%d/landing", c.baseURL, playerID))
	if err != nil {
		return "", fmt.Errorf("fetch player %d: %w", playerID, err)
	}
	var l landing
	if err := json.Unmarshal(body, &l); err != nil {
		return "", fmt.Errorf("decode player %d: %w", playerID, err)
	}
	if l.ShootsCatches == "" {
		return "", fmt.Errorf("player %d has no handedness", playerID)
	}

	c.hands.Store(playerID, l.ShootsCatches)
	if c.memo != nil {
		if err := c.memo.Set(ctx, key, l.ShootsCatches, handednessTTL); err != nil {
			log.Printf("[nhlapi] ⚠️  handedness memo write failed: %v", err)
		}
	}
	return l.ShootsCatches, nil
}
