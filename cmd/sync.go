package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bitesync/bitesync/internal/agent"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Force an immediate sync of all pending orders",
	Long:  `Resets per-order retry counters (bypassing the automatic retry ceiling) and drains the pending-order queue against the backend right away.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		ctx := cmd.Context()
		a, err := agent.New(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting agent: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		pending, err := a.PendingOrderCount(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting pending orders: %v\n", err)
			os.Exit(1)
		}
		if pending == 0 {
			fmt.Println("No pending orders to sync")
			return
		}

		bar := progressbar.Default(int64(pending), "syncing orders")
		report, err := a.ForceSyncNow(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running sync: %v\n", err)
			os.Exit(1)
		}
		bar.Add(report.Succeeded + report.Failed)
		bar.Finish()

		fmt.Printf("\nSynced %d order(s), %d failed\n", report.Succeeded, report.Failed)
		if report.Failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
