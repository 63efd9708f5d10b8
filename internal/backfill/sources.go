package backfill

import (
	"fmt"
	"log"

	"github.com/fortuna/puckline/internal/cache"
	"github.com/fortuna/puckline/internal/config"
	"github.com/fortuna/puckline/internal/fetch"
	"github.com/fortuna/puckline/internal/ingest/espn"
	"github.com/fortuna/puckline/internal/ingest/nhlapi"
)

// SourcesFromConfig builds the scrape clients. memo, when set, caches
// finished report pages and handedness lookups. The returned func releases
// the browser when ESPN pages are rendered.
func SourcesFromConfig(cfg *config.Config, memo cache.Cache) (Sources, Options, func()) {
	httpFetcher := fetch.NewHTTPFetcher(fetch.Options{
		RequestsPerSecond: cfg.FetchRPS,
		Timeout:           cfg.FetchTimeout,
		Retries:           cfg.FetchRetries,
	})

	api := nhlapi.New(httpFetcher, cfg.NHLAPIBaseURL)
	if memo != nil {
		api = api.WithMemo(memo)
	}

	closer := func() {}
	var espnFetcher fetch.Fetcher = fetch.NewCurlFetcher()
	if cfg.ESPNRender {
		render := fetch.NewRenderFetcher()
		espnFetcher = render
		closer = render.Close
		log.Println("[runner] ESPN pages rendered with headless Chrome")
	}

	src := Sources{
		Reports:        httpFetcher,
		ReportsBaseURL: cfg.ReportsBaseURL,
		API:            api,
		ESPN:           espn.NewIngester(espn.New(espnFetcher, cfg.ESPNBaseURL)),
		DocCache:       memo,
	}
	opts := Options{
		FetchWorkers:     cfg.FetchWorkers,
		TransientRetries: cfg.TransientRetries,
		TransientDelay:   cfg.TransientDelay,
	}
	return src, opts, closer
}

// ProvidersFromConfig parses the configured coordinate provider order.
func ProvidersFromConfig(cfg *config.Config) ([]Provider, error) {
	names := make([]Provider, 0, len(cfg.CoordOrder))
	for _, n := range cfg.CoordOrder {
		names = append(names, Provider(n))
	}
	ps, err := ParseProviders(names)
	if err != nil {
		return nil, fmt.Errorf("COORD_ORDER: %w", err)
	}
	return ps, nil
}
