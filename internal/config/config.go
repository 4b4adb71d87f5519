package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIProfile   string        `mapstructure:"api_profile"`
	APIBaseURL   string        `mapstructure:"api_base_url"`
	APITimeoutMs int64         `mapstructure:"api_timeout_ms"`
	APITimeout   time.Duration `mapstructure:"-"`
	ProfilesFile string        `mapstructure:"profiles_file"`

	TranscriptType            string        `mapstructure:"transcript_type"`
	TranscriptPath            string        `mapstructure:"transcript_path"`
	TranscriptTTLSeconds      int64         `mapstructure:"transcript_ttl_seconds"`
	TranscriptCleanupSeconds  int64         `mapstructure:"transcript_cleanup_interval_seconds"`
	TranscriptTTL             time.Duration `mapstructure:"-"`
	TranscriptCleanupInterval time.Duration `mapstructure:"-"`

	ExportersFile string `mapstructure:"exporters_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return unmarshal(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "triage-kg-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_profile", "api")
	v.SetDefault("api_base_url", "") // empty selects the profile's base url
	v.SetDefault("api_timeout_ms", 10000)
	v.SetDefault("profiles_file", "")
	v.SetDefault("transcript_type", "bbolt")
	v.SetDefault("transcript_path", "./data/transcripts.db")
	v.SetDefault("transcript_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("transcript_cleanup_interval_seconds", int64(time.Hour/time.Second))
	v.SetDefault("exporters_file", "./configs/exporters.yaml")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIProfile = strings.ToLower(strings.TrimSpace(cfg.APIProfile))
	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)

	if cfg.APITimeoutMs <= 0 {
		return nil, fmt.Errorf("invalid api_timeout_ms (must be positive milliseconds)")
	}
	cfg.APITimeout = time.Duration(cfg.APITimeoutMs) * time.Millisecond

	if cfg.TranscriptTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid transcript_ttl_seconds (must be positive seconds)")
	}
	if cfg.TranscriptCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid transcript_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.TranscriptTTL = time.Duration(cfg.TranscriptTTLSeconds) * time.Second
	cfg.TranscriptCleanupInterval = time.Duration(cfg.TranscriptCleanupSeconds) * time.Second

	return &cfg, nil
}
