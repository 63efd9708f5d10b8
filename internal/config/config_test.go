package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "FETCH_RPS", "TRANSIENT_DELAY", "COORD_ORDER", "ESPN_RENDER"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 4.0, cfg.FetchRPS)
	assert.Equal(t, 10*time.Second, cfg.TransientDelay)
	assert.Equal(t, []string{"api", "espn"}, cfg.CoordOrder)
	assert.False(t, cfg.ESPNRender)
	assert.Equal(t, "https://www.nhl.com/scores/htmlreports", cfg.ReportsBaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FETCH_WORKERS", "2")
	t.Setenv("FETCH_RPS", "0.5")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("TRANSIENT_DELAY", "45")
	t.Setenv("LIVE_POLL_INTERVAL", "bogus")
	t.Setenv("ESPN_RENDER", "true")
	t.Setenv("COORD_ORDER", " espn , api,")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2, cfg.FetchWorkers)
	assert.Equal(t, 0.5, cfg.FetchRPS)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 45*time.Second, cfg.TransientDelay)
	assert.Equal(t, 30*time.Second, cfg.LivePollInterval)
	assert.True(t, cfg.ESPNRender)
	assert.Equal(t, []string{"espn", "api"}, cfg.CoordOrder)
}
