package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fortuna/puckline/internal/backfill"
	"github.com/fortuna/puckline/internal/cache"
	"github.com/fortuna/puckline/internal/config"
)

func scrapeCmd() *cobra.Command {
	var (
		live        bool
		format      string
		out         string
		providers   string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "scrape <game-id>...",
		Short: "Scrape and reconcile games, writing one flat table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			ps, err := parseProviderFlag(providers, cfg)
			if err != nil {
				return err
			}
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}

			// A memo shared across retries of this run; Redis when configured.
			var memo cache.Cache = cache.NewMemory()
			if cfg.RedisURL != "" {
				rc, err := cache.NewRedisCache(cfg.RedisURL)
				if err != nil {
					log.Printf("⚠️  Redis unavailable, using in-process cache: %v", err)
				} else {
					defer rc.Close()
					memo = rc
				}
			}

			src, opts, closeSources := backfill.SourcesFromConfig(cfg, memo)
			defer closeSources()
			runner := backfill.NewRunner(src, nil, opts)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			spec := backfill.JobSpec{
				Type:        backfill.JobTypeGames,
				GameIDs:     args,
				Live:        live,
				Providers:   ps,
				Concurrency: concurrency,
			}
			res, err := runner.Run(ctx, spec, &consoleReporter{})
			if err != nil {
				return err
			}
			if res.Cancelled {
				log.Printf("⚠️  Interrupted, writing %d games scraped so far", len(res.Records))
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := writeRecords(w, format, res.Records); err != nil {
				return err
			}
			if out != "" && out != "-" {
				log.Printf("✓ Wrote %d games to %s", len(res.Records), out)
			}

			m := runner.Engine().GetMetrics()
			log.Printf("Reconciled %d games: %d primary matches, %d timing and %d identity recoveries, %d unlocated",
				m.TotalReconciliations, m.PrimaryMatches, m.TimingRecoveries, m.IdentityRecoveries, m.Unlocated)
			return nil
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "Scrape in-progress games")
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&providers, "providers", "", "Coordinate providers in order, e.g. api,espn (default COORD_ORDER)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Games scraped at once")
	return cmd
}

func parseProviderFlag(flag string, cfg *config.Config) ([]backfill.Provider, error) {
	if strings.TrimSpace(flag) == "" {
		return backfill.ProvidersFromConfig(cfg)
	}
	var names []backfill.Provider
	for _, p := range strings.Split(flag, ",") {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, backfill.Provider(p))
		}
	}
	return backfill.ParseProviders(names)
}
