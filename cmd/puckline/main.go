// Command puckline scrapes NHL play-by-play reports and reconciles them with
// shot coordinates and shifts.
//
// Usage:
//
//	puckline scrape 2023020001 2023020002 --format csv --out games.csv
//	puckline scrape 2023020510 --live --providers espn
//	puckline serve
//	puckline hand 8478402
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName    = "puckline"
	appVersion = "1.0.0"
)

func main() {
	root := &cobra.Command{
		Use:     appName,
		Short:   "NHL play-by-play scraper and reconciler",
		Version: appVersion,
	}

	root.AddCommand(scrapeCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(handCmd())

	if err := root.Execute(); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
