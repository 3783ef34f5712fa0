package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SPAPI     SPAPIConfig     `mapstructure:"spapi"`
	Ads       AdsConfig       `mapstructure:"ads"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

type AuthConfig struct {
	// Shared secret expected in the x-cron-secret header of trigger calls.
	CronSecret string `mapstructure:"cron_secret"`

	// Inbound limiter for the trigger endpoints.
	TriggerQPS   float64 `mapstructure:"trigger_qps"`
	TriggerBurst int     `mapstructure:"trigger_burst"`
}

type DatabaseConfig struct {
	DSN              string `mapstructure:"dsn"`
	UpsertBatchSize  int    `mapstructure:"upsert_batch_size"`
	LogRetentionDays int    `mapstructure:"log_retention_days"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	LogListKey string `mapstructure:"log_list_key"`
	LogListMax int    `mapstructure:"log_list_max"`
}

type SPAPIConfig struct {
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	RefreshToken  string `mapstructure:"refresh_token"`
	MarketplaceID string `mapstructure:"marketplace_id"`
	Endpoint      string `mapstructure:"endpoint"`
	TokenEndpoint string `mapstructure:"token_endpoint"`

	// Optional secondary signing credential. When set, requests carry a
	// simplified signed-request header; this is not a full SigV4 signer.
	SigningSecret string `mapstructure:"signing_secret"`
}

type AdsConfig struct {
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	RefreshToken  string `mapstructure:"refresh_token"`
	ProfileID     string `mapstructure:"profile_id"`
	Endpoint      string `mapstructure:"endpoint"`
	TokenEndpoint string `mapstructure:"token_endpoint"`

	ReportPollInitialMs  int `mapstructure:"report_poll_initial_ms"`
	ReportPollMaxRetries int `mapstructure:"report_poll_max_retries"`
}

type RateLimitConfig struct {
	// Outbound token bucket shared by both upstream clients, per process.
	Capacity     int     `mapstructure:"capacity"`
	RefillPerSec float64 `mapstructure:"refill_per_sec"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. SELLERDASH_SPAPI_REFRESH_TOKEN
	viper.SetEnvPrefix("sellerdash")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("auth.trigger_qps", 1.0)
	viper.SetDefault("auth.trigger_burst", 5)
	viper.SetDefault("database.upsert_batch_size", 500)
	viper.SetDefault("database.log_retention_days", 30)
	viper.SetDefault("redis.log_list_key", "ingestion_logs")
	viper.SetDefault("redis.log_list_max", 10000)
	viper.SetDefault("spapi.endpoint", "https://sellingpartnerapi-na.amazon.com")
	viper.SetDefault("spapi.token_endpoint", "https://api.amazon.com/auth/o2/token")
	viper.SetDefault("spapi.marketplace_id", "ATVPDKIKX0DER")
	viper.SetDefault("ads.endpoint", "https://advertising-api.amazon.com")
	viper.SetDefault("ads.token_endpoint", "https://api.amazon.com/auth/o2/token")
	viper.SetDefault("ads.report_poll_initial_ms", 2000)
	viper.SetDefault("ads.report_poll_max_retries", 6)
	viper.SetDefault("rate_limit.capacity", 5)
	viper.SetDefault("rate_limit.refill_per_sec", 1.0)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
