package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bitesync/bitesync/internal/agent"
	"github.com/bitesync/bitesync/internal/models"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bitesync",
	Short: "Offline-first order capture and sync agent",
	Long:  `bitesync is an edge agent for restaurant ordering: it accepts orders locally while the backend is unreachable, persists them in an embedded database, and reconciles them with the hosted backend once connectivity returns.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := agent.New(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting agent: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		log.Info().Str("data_dir", cfg.DataDir).Bool("degraded", a.Degraded()).Msg("agent running")
		a.Run(ctx)
		log.Info().Msg("agent stopped")
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.json)")

	rootCmd.PersistentFlags().String("data-dir", "data", "Local storage directory")
	rootCmd.Flags().Duration("sync-interval", 0, "Periodic sync pass cadence")
	rootCmd.Flags().Int("max-sync-attempts", 5, "Automatic retry ceiling per order")
	rootCmd.Flags().Bool("kafka-enabled", false, "Enable Kafka event publishing")
	rootCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")

	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("sync_interval", rootCmd.Flags().Lookup("sync-interval"))
	viper.BindPFlag("max_sync_attempts", rootCmd.Flags().Lookup("max-sync-attempts"))
	viper.BindPFlag("kafka_enabled", rootCmd.Flags().Lookup("kafka-enabled"))
	viper.BindPFlag("kafka_broker_list", rootCmd.Flags().Lookup("kafka-broker-list"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.AutomaticEnv()
}

func setup() (*models.Config, zerolog.Logger, error) {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return cfg, log, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
