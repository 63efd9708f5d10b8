package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fortuna/puckline/internal/config"
	"github.com/fortuna/puckline/internal/fetch"
	"github.com/fortuna/puckline/internal/ingest/nhlapi"
)

func handCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hand <player-id>...",
		Short: "Print the shooting hand of NHL players",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			client := nhlapi.New(fetch.NewHTTPFetcher(fetch.Options{
				RequestsPerSecond: cfg.FetchRPS,
				Timeout:           cfg.FetchTimeout,
				Retries:           cfg.FetchRetries,
			}), cfg.NHLAPIBaseURL)

			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid player id %q", arg)
				}
				hand, err := client.Handedness(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", id, hand)
			}
			return nil
		},
	}
}
