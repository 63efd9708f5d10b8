package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/puckline/internal/api/rest"
	"github.com/fortuna/puckline/internal/api/websocket"
	"github.com/fortuna/puckline/internal/archive"
	"github.com/fortuna/puckline/internal/backfill"
	"github.com/fortuna/puckline/internal/cache"
	"github.com/fortuna/puckline/internal/config"
	"github.com/fortuna/puckline/internal/publisher"
	"github.com/fortuna/puckline/internal/scheduler"
	"github.com/fortuna/puckline/internal/store"
	"github.com/fortuna/puckline/internal/store/repository"
)

const connectRetries = 10

func serveCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scrape job API, websocket feed and live poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(config.Load(), concurrency)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Games of one job scraped at once")
	return cmd
}

func serve(cfg *config.Config, concurrency int) error {
	log.Printf("Starting %s v%s", appName, appVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := backfill.ProvidersFromConfig(cfg)
	if err != nil {
		return err
	}

	var (
		sinks []backfill.Sink
		jobs  backfill.JobStore
		deps  rest.Deps
	)

	// Postgres keeps jobs and records; without it jobs live in memory.
	if cfg.DatabaseURL != "" {
		db, err := connectDatabase(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.RunMigrations(ctx); err != nil {
			return err
		}
		log.Println("✓ Database migrations applied")

		records := repository.NewRecordRepository(db)
		sinks = append(sinks, records)
		jobs = backfill.NewRepository(db)
		deps.Games = records
		deps.Health = db.HealthCheck
	} else {
		log.Println("⚠️  DATABASE_URL not set, jobs are kept in memory and records are not stored")
		jobs = backfill.NewMemoryJobs()
	}

	var memo cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		rc, err := connectRedis(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		memo = rc
		sinks = append(sinks, publisher.NewRedisStreamPublisher(rc.Client(), cfg.StreamName))
		log.Printf("✓ Publishing records to Redis stream %s", cfg.StreamName)
	}

	if cfg.ArchiveTable != "" {
		arc, err := archive.NewFromEnv(ctx, cfg.AWSRegion, cfg.ArchiveTable)
		if err != nil {
			return err
		}
		sinks = append(sinks, arc)
		log.Printf("✓ Archiving summaries to DynamoDB table %s", cfg.ArchiveTable)
	}

	ws := websocket.NewServer(nil)
	go ws.Run(ctx)
	sinks = append(sinks, ws)

	var runner *backfill.Runner
	poller := scheduler.NewOrchestrator(scheduler.ScraperFunc(func(ctx context.Context, spec backfill.JobSpec, r backfill.Reporter) (*backfill.Result, error) {
		return runner.Run(ctx, spec, r)
	}), scheduler.Config{
		LivePollInterval: cfg.LivePollInterval,
		Providers:        providers,
	})
	sinks = append(sinks, poller)

	src, opts, closeSources := backfill.SourcesFromConfig(cfg, memo)
	defer closeSources()
	runner = backfill.NewRunner(src, nil, opts, sinks...)

	svc := backfill.NewService(jobs, runner, nil)
	svc.SetConcurrency(concurrency)
	svc.SetDefaultProviders(providers)
	svc.Start()
	log.Println("✓ Scrape job worker started")

	go poller.Start(ctx)
	log.Println("✓ Live poller started")

	deps.Jobs = svc
	deps.Hands = src.API
	deps.Live = poller
	restServer := rest.NewServer(cfg.Port, rest.NewHandler(deps), ws)
	go func() {
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
			stop()
		}
	}()
	log.Printf("✓ Listening on :%s (REST /api/v1, websocket /ws)", cfg.Port)

	<-ctx.Done()
	log.Printf("Shutting down %s gracefully...", appName)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST server shutdown error: %v", err)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Printf("Job worker shutdown error: %v", err)
	}

	log.Printf("%s stopped", appName)
	return nil
}

func connectDatabase(dsn string) (*store.Database, error) {
	var err error
	for i := 0; i < connectRetries; i++ {
		var db *store.Database
		if db, err = store.NewDatabase(dsn); err == nil {
			log.Println("✓ Connected to database")
			return db, nil
		}
		log.Printf("Database connection attempt %d/%d failed: %v", i+1, connectRetries, err)
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

func connectRedis(url string) (*cache.RedisCache, error) {
	var err error
	for i := 0; i < connectRetries; i++ {
		var rc *cache.RedisCache
		if rc, err = cache.NewRedisCache(url); err == nil {
			log.Println("✓ Connected to Redis")
			return rc, nil
		}
		log.Printf("Redis connection attempt %d/%d failed: %v", i+1, connectRetries, err)
		time.Sleep(2 * time.Second)
	}
	return nil, err
}
