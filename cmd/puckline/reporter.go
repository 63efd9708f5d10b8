package main

import (
	"log"

	"github.com/fortuna/puckline/internal/backfill"
	"github.com/fortuna/puckline/internal/pbp"
)

type consoleReporter struct {
	dryRun bool
}

func (c *consoleReporter) OnJobStart(spec backfill.JobSpec, total int) {
	log.Printf("Starting %s job: %d games (live=%v, dry_run=%v)", spec.Type, total, spec.Live, c.dryRun)
}

func (c *consoleReporter) OnGameStart(gameID string, index int, total int) {
	log.Printf("[%d/%d] %s", index+1, total, gameID)
}

func (c *consoleReporter) OnGameProcessed(rec *pbp.GameRecord) {
	s := pbp.Summarize(rec)
	msg := ""
	if s.Warning != "" {
		msg = " ⚠️  " + s.Warning
	}
	log.Printf("✓ %s %s@%s %d-%d, %d events, %d located (%s)%s",
		s.GameID, s.AwayTeam, s.HomeTeam, s.AwayScore, s.HomeScore, s.Events, s.Located, s.CoordinateSource, msg)
}

func (c *consoleReporter) OnGameFailed(f backfill.GameFailure) {
	log.Printf("⚠️  %s skipped (%s): %v", f.GameID, f.Outcome, f.Err)
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	log.Printf("Progress: %s (%d/%d)", message, current, total)
}

func (c *consoleReporter) OnJobComplete(res *backfill.Result) {
	log.Printf("Job complete: %d games, %d failed", len(res.Records), len(res.Failures))
}

func (c *consoleReporter) OnJobError(err error) {
	log.Printf("❌ Job error: %v", err)
}
