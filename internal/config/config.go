package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Retry     Retry     `mapstructure:"retry"`
	Preview   Preview   `mapstructure:"preview"`
	Templates Templates `mapstructure:"templates"`
	Archive   Archive   `mapstructure:"archive"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP port to listen on
}

// Kafka holds configuration for the export task queue.
type Kafka struct {
	GroupID string   `mapstructure:"group_id"` // Consumer group ID
	Topic   string   `mapstructure:"topic"`    // Kafka topic name
	Brokers []string `mapstructure:"brokers"`  // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// Preview holds the fixed preview viewport. Custom watermark positions are
// preview-space coordinates, so the interactive layer and the export worker
// must share this viewport.
type Preview struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Templates holds the template store location.
type Templates struct {
	Path string `mapstructure:"path"` // JSON file holding named templates
}

// Archive configures the optional mirror of exported batches.
type Archive struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"` // "file" or "minio"

	BaseDir string `mapstructure:"base_dir"` // file backend

	Endpoint   string `mapstructure:"endpoint"` // minio backend
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// mustBindEnv binds credential environment variables to Viper keys.
//
// It panics if any environment variable cannot be bound.
func mustBindEnv() {
	bindings := map[string]string{
		"archive.access_key": "MINIO_ACCESS_KEY",
		"archive.secret_key": "MINIO_SECRET_KEY",
	}

	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			zlog.Logger.Panic().Err(err).Msgf("failed to bind env %s", env)
		}
	}
}

// MustLoad loads the configuration from ./config/config.yml.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to read config")
	}

	mustBindEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		zlog.Logger.Panic().Err(err).Msgf("failed to unmarshal config: %v", err)
	}

	if cfg.Preview.Width <= 0 || cfg.Preview.Height <= 0 {
		// The original tool previews into a 400x300 pane; keep that as the
		// default viewport.
		cfg.Preview.Width, cfg.Preview.Height = 400, 300
	}

	return &cfg
}
