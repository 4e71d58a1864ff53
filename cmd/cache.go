package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bitesync/bitesync/internal/agent"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Refresh the local menu cache from the backend",
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

		manager := a.CacheManager()
		if manager == nil {
			fmt.Fprintln(os.Stderr, "Local storage unavailable; cannot cache menu data")
			os.Exit(1)
		}

		var bar *progressbar.ProgressBar
		manager.Progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "caching images")
			}
			bar.Set(done)
		}

		if err := a.RefreshCache(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error refreshing cache: %v\n", err)
			os.Exit(1)
		}
		if bar != nil {
			bar.Finish()
		}
		fmt.Println("\nMenu cache refreshed")
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}
