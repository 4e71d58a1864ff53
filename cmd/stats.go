package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bitesync/bitesync/internal/agent"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local cache and queue statistics",
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

		stats, err := a.CacheStatistics(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading statistics: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Categories:      %d\n", stats.Categories)
		fmt.Printf("Menu items:      %d\n", stats.MenuItems)
		fmt.Printf("Pending orders:  %d\n", stats.PendingOrders)
		fmt.Printf("Cached assets:   %d\n", stats.CachedAssets)
		if stats.LastCacheUpdate != nil {
			fmt.Printf("Last cache sync: %s\n", stats.LastCacheUpdate.Local().Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("Last cache sync: never")
		}
		if a.Degraded() {
			fmt.Println("\nWARNING: running in degraded mode; orders are held in memory only")
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
