package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fortuna/puckline/internal/backfill"
	"github.com/fortuna/puckline/internal/cache"
	"github.com/fortuna/puckline/internal/config"
	"github.com/fortuna/puckline/internal/pbp"
	"github.com/fortuna/puckline/internal/store"
	"github.com/fortuna/puckline/internal/store/repository"
)

const (
	appName    = "puckline-backfill"
	appVersion = "1.0.0"
)

func main() {
	log.Printf("=== %s v%s ===", appName, appVersion)
	cfg := config.Load()

	var (
		dsn         = flag.String("dsn", cfg.DatabaseURL, "Postgres DSN (default DATABASE_URL)")
		season      = flag.Int("season", 0, "First year of the season, e.g. 2023 for 2023-24")
		gameType    = flag.Int("type", 2, "Game type: 1 preseason, 2 regular, 3 playoffs")
		first       = flag.Int("first", 1, "First game number")
		last        = flag.Int("last", 0, "Last game number")
		games       = flag.String("games", "", "Comma separated game ids instead of a range")
		providers   = flag.String("providers", strings.Join(cfg.CoordOrder, ","), "Coordinate providers in order")
		concurrency = flag.Int("concurrency", 2, "Games scraped at once")
		dryRun      = flag.Bool("dry-run", false, "Dry run (do not write to DB)")
	)

	flag.Parse()

	spec, err := buildSpec(*season, *gameType, *first, *last, *games)
	if err != nil {
		log.Fatalf("Specify --season with --last, or --games: %v", err)
	}
	spec.DryRun = *dryRun
	spec.Concurrency = *concurrency
	if spec.Providers, err = parseProviders(*providers); err != nil {
		log.Fatalf("providers: %v", err)
	}

	var sinks []backfill.Sink
	if !*dryRun {
		if *dsn == "" {
			log.Fatalf("--dsn or DATABASE_URL is required unless --dry-run")
		}
		db, err := store.NewDatabase(*dsn)
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		defer db.Close()
		if err := db.RunMigrations(context.Background()); err != nil {
			log.Fatalf("migrations: %v", err)
		}
		sinks = append(sinks, repository.NewRecordRepository(db))
	}

	var memo cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		if rc, err := cache.NewRedisCache(cfg.RedisURL); err != nil {
			log.Printf("⚠️  Redis unavailable, using in-process cache: %v", err)
		} else {
			defer rc.Close()
			memo = rc
		}
	}

	src, opts, closeSources := backfill.SourcesFromConfig(cfg, memo)
	defer closeSources()
	runner := backfill.NewRunner(src, nil, opts, sinks...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := runner.Run(ctx, spec, &consoleReporter{dryRun: *dryRun})
	if err != nil {
		log.Fatalf("backfill failed: %v", err)
	}
	if res.Cancelled {
		log.Printf("⚠️  Backfill interrupted after %d games", len(res.Records))
		return
	}

	log.Printf("✓ Backfill completed: %d games stored, %d failed", len(res.Records), len(res.Failures))
}

func buildSpec(season, gameType, first, last int, games string) (backfill.JobSpec, error) {
	if games != "" {
		var ids []string
		for _, id := range strings.Split(games, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		return backfill.JobSpec{Type: backfill.JobTypeGames, GameIDs: ids}, nil
	}
	if season == 0 || last == 0 {
		return backfill.JobSpec{}, fmt.Errorf("no games requested")
	}
	spec := backfill.JobSpec{
		Type:     backfill.JobTypeRange,
		Season:   season,
		GameType: gameType,
		First:    first,
		Last:     last,
	}
	return spec, nil
}

func parseProviders(s string) ([]backfill.Provider, error) {
	var names []backfill.Provider
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, backfill.Provider(p))
		}
	}
	return backfill.ParseProviders(names)
}

type consoleReporter struct {
	dryRun bool
}

func (c *consoleReporter) OnJobStart(spec backfill.JobSpec, total int) {
	log.Printf("Starting %s job: %d games (dry_run=%v)", spec.Type, total, c.dryRun)
}

func (c *consoleReporter) OnGameStart(gameID string, index int, total int) {
	log.Printf("[%d/%d] %s", index+1, total, gameID)
}

func (c *consoleReporter) OnGameProcessed(rec *pbp.GameRecord) {
	log.Printf("Processed game %s (%d events, %s)", rec.GameID, len(rec.Rows), rec.CoordinateSource)
}

func (c *consoleReporter) OnGameFailed(f backfill.GameFailure) {
	log.Printf("⚠️  Skipped game %s (%s): %v", f.GameID, f.Outcome, f.Err)
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	log.Printf("Progress: %s (%d/%d)", message, current, total)
}

func (c *consoleReporter) OnJobComplete(res *backfill.Result) {
	log.Println("Job complete")
}

func (c *consoleReporter) OnJobError(err error) {
	log.Printf("Job error: %v", err)
}
