package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitesync/bitesync/internal/agent"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all local state (orders, cache, logs)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		if !resetYes {
			fmt.Print("This deletes every locally queued order. Continue? [y/N] ")
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if strings.TrimSpace(strings.ToLower(answer)) != "y" {
				fmt.Println("Aborted")
				return
			}
		}

		ctx := cmd.Context()
		a, err := agent.New(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting agent: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if err := a.ClearAll(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing local state: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Local state cleared")
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
