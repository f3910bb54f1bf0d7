package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default run target, used when neither env nor a targets file provides one.
const (
	DefaultKeyword = "Geo-political Tension"
)

// DefaultTrustedWebsites is the allowlist used by the default invocation.
var DefaultTrustedWebsites = []string{
	"https://www.foreignaffairs.com/topics/geopolitics",
	"https://www.spglobal.com/en/research-insights/market-insights/geopolitical-risk",
}

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	Keyword         string   `mapstructure:"keyword"`
	TrustedWebsites []string `mapstructure:"-"`
	TargetsFile     string   `mapstructure:"targets_file"`
	OutputRoot      string   `mapstructure:"output_root"`

	SearchEngine   string `mapstructure:"search_engine"`
	SearchEndpoint string `mapstructure:"search_endpoint"`

	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RetryMaxAttempts      int           `mapstructure:"retry_max_attempts"`
	RetryBackoffMs        int64         `mapstructure:"retry_backoff_ms"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	RetryBackoff          time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "keyword-image-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "scraper.log")
	v.SetDefault("keyword", DefaultKeyword)
	v.SetDefault("trusted_websites", strings.Join(DefaultTrustedWebsites, ","))
	v.SetDefault("targets_file", "")
	v.SetDefault("output_root", ".")
	v.SetDefault("search_engine", "duckduckgo_html")
	v.SetDefault("search_endpoint", "")
	v.SetDefault("request_timeout_seconds", 10)
	v.SetDefault("retry_max_attempts", 5)
	v.SetDefault("retry_backoff_ms", 500)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/ledger.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("publishers_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.TrustedWebsites = splitList(v.GetString("trusted_websites"))

	if strings.TrimSpace(cfg.TargetsFile) != "" {
		targets, err := LoadTargets(cfg.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("load targets: %w", err)
		}
		cfg.Keyword = targets.Keyword
		cfg.TrustedWebsites = targets.TrustedWebsites
	}

	if strings.TrimSpace(cfg.Keyword) == "" {
		return nil, fmt.Errorf("keyword is required")
	}
	if len(cfg.TrustedWebsites) == 0 {
		return nil, fmt.Errorf("at least one trusted website is required")
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.RetryMaxAttempts <= 0 {
		return nil, fmt.Errorf("invalid retry_max_attempts (must be positive)")
	}
	if cfg.RetryBackoffMs < 0 {
		return nil, fmt.Errorf("invalid retry_backoff_ms (must not be negative)")
	}
	cfg.RetryBackoff = time.Duration(cfg.RetryBackoffMs) * time.Millisecond

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// splitList splits a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
