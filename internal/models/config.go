package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	Database DatabaseConfig `mapstructure:"database"`

	SyncInterval    time.Duration `mapstructure:"sync_interval"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
	MaxSyncAttempts int           `mapstructure:"max_sync_attempts"`
	SubmitTimeout   time.Duration `mapstructure:"submit_timeout"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
	MaxBackoff      time.Duration `mapstructure:"max_backoff"`

	NetCheckInterval time.Duration `mapstructure:"net_check_interval"`

	AssetExpiryHours int           `mapstructure:"asset_expiry_hours"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`

	KafkaEnabled     bool   `mapstructure:"kafka_enabled"`
	KafkaBrokerList  string `mapstructure:"kafka_broker_list"`
	KafkaTopicPrefix string `mapstructure:"kafka_topic_prefix"`
	SessionTimeoutMs int    `mapstructure:"session_timeout_ms"`

	ExportFolder string `mapstructure:"export_folder"`
	S3Region     string `mapstructure:"s3_region"`
	S3Bucket     string `mapstructure:"s3_bucket"`
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Default config location
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("data_dir", "data")
	viper.SetDefault("sync_interval", "30s")
	viper.SetDefault("settle_delay", "1s")
	viper.SetDefault("max_sync_attempts", 5)
	viper.SetDefault("submit_timeout", "30s")
	viper.SetDefault("health_timeout", "5s")
	viper.SetDefault("max_backoff", "60s")
	viper.SetDefault("net_check_interval", "5s")
	viper.SetDefault("asset_expiry_hours", 24)
	viper.SetDefault("fetch_timeout", "15s")
	viper.SetDefault("kafka_topic_prefix", "bitesync")
	viper.SetDefault("export_folder", "export")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &config, nil
}
