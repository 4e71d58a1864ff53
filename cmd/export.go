package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bitesync/bitesync/internal/export"
	"github.com/bitesync/bitesync/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export local order history and sync logs to parquet",
	Long:  `Writes orders.parquet and sync_logs.parquet to the configured export folder, and uploads them to S3 when an s3_bucket is configured.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		ctx := cmd.Context()
		st, err := store.Open(filepath.Join(cfg.DataDir, "bitesync.db"), log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening local store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		exporter := &export.Exporter{Store: st, Folder: cfg.ExportFolder, Log: log}
		if cfg.S3Bucket != "" {
			uploader, err := export.NewS3Uploader(ctx, cfg.S3Region, cfg.S3Bucket, "bitesync")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error configuring S3: %v\n", err)
				os.Exit(1)
			}
			exporter.Uploader = uploader
		}

		paths, err := exporter.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		for _, p := range paths {
			fmt.Println("wrote", p)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
