// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like AGENT_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored if not present
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the usual locations so the binary works from
// the repo root, cmd directories, and test packages alike.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "saturnus-magister"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 {
		cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "emails"
	}

	if cfg.Agent.BaseURL == "" {
		cfg.Agent.BaseURL = "https://api.x.ai/v1"
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = "grok-4-1-fast-reasoning"
	}
	if cfg.Agent.Timeout == 0 {
		cfg.Agent.Timeout = 30 * time.Second
	}
	if cfg.Agent.MaxRetries == 0 {
		cfg.Agent.MaxRetries = 2
	}

	if cfg.TickTick.BaseURL == "" {
		cfg.TickTick.BaseURL = "https://api.ticktick.com"
	}
	if cfg.TickTick.Timeout == 0 {
		cfg.TickTick.Timeout = 15 * time.Second
	}

	if cfg.Matching.AutoMatchThreshold == 0 {
		cfg.Matching.AutoMatchThreshold = 0.85
	}
	if cfg.Matching.ReviewThreshold == 0 {
		cfg.Matching.ReviewThreshold = 0.50
	}
	if cfg.Matching.AmbiguityBand == 0 {
		cfg.Matching.AmbiguityBand = 0.15
	}
	if cfg.Matching.LookbackDays == 0 {
		cfg.Matching.LookbackDays = 90
	}

	if cfg.Processing.PollInterval == 0 {
		cfg.Processing.PollInterval = 5 * time.Minute
	}
	if cfg.Processing.MaxConcurrent == 0 {
		cfg.Processing.MaxConcurrent = 8
	}
	if cfg.Processing.BatchSize == 0 {
		cfg.Processing.BatchSize = 50
	}
	if cfg.Processing.MetricsAddr == "" {
		cfg.Processing.MetricsAddr = ":9102"
	}

	if cfg.Notifications.RejectionStreakThreshold == 0 {
		cfg.Notifications.RejectionStreakThreshold = 3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// overrideFromEnv fills in secrets that are usually only present as plain
// environment variables, never in config files.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("AGENT_API_KEY"); v != "" {
		cfg.Agent.APIKey = v
	}
	if v := os.Getenv("TICKTICK_ACCESS_TOKEN"); v != "" {
		cfg.TickTick.AccessToken = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Database.Postgres.Password = v
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Matching.AutoMatchThreshold <= cfg.Matching.ReviewThreshold {
		return fmt.Errorf("matching.auto_match_threshold must be above matching.review_threshold")
	}
	if cfg.Processing.MaxConcurrent < 1 {
		return fmt.Errorf("processing.max_concurrent must be at least 1")
	}
	return nil
}
