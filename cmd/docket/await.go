package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacentio/docket/retry"
)

func newAwaitCmd(a *app) *cobra.Command {
	var (
		attempts int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "await [collection]",
		Short: "Wait until a collection is reachable",
		Long: `Await connects to the store and opens the collection, creating it if
missing. Every failure is retried on a fixed schedule; the last error is
reported once the schedule runs out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule := append(retry.Schedule{0}, retry.Fixed(attempts, interval)...)
			coll, err := a.mgr.AwaitCollection(cmd.Context(), args[0], schedule)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Collection ready: %s\n", coll.Name())
			return nil
		},
	}
	cmd.Flags().IntVar(&attempts, "attempts", 30, "Retries after the first attempt")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Wait between retries")
	return cmd
}
