package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Site
	BaseURL string

	// Storage
	DBPath string

	// HTTP/Scraping
	HTTPTimeout time.Duration
	UserAgent   string
	Render      bool

	// Rate Limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Crawl
	FetchWorkers int

	// Caching
	CacheMaxEntries int
}

// Load builds a Config by combining defaults, environment variables, and
// CLI flags. Caller should pass the command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		BaseURL:         DefaultBaseURL,
		DBPath:          DefaultDBPath,
		HTTPTimeout:     DefaultHTTPTimeout,
		UserAgent:       DefaultUserAgent,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		FetchWorkers:    DefaultFetchWorkers,
		CacheMaxEntries: DefaultCacheMaxEntries,
	}

	// Override from environment variables
	if v := os.Getenv("KM77_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("KM77_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("KM77_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("KM77_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FetchWorkers = n
		}
	}

	// Read CLI flags if provided
	if cmd != nil {
		if f := cmd.Flags().Lookup("base-url"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.BaseURL = s
			}
		}
		if f := cmd.Flags().Lookup("db"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.DBPath = s
			}
		}
		if f := cmd.Flags().Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := cmd.Flags().Lookup("timeout"); f != nil {
			if s := f.Value.String(); s != "" {
				if d, err := time.ParseDuration(s); err == nil {
					cfg.HTTPTimeout = d
				}
			}
		}
		if f := cmd.Flags().Lookup("workers"); f != nil {
			if s := f.Value.String(); s != "" {
				if n, err := strconv.Atoi(s); err == nil {
					cfg.FetchWorkers = n
				}
			}
		}
		if f := cmd.Flags().Lookup("render"); f != nil {
			if f.Value.String() == "true" {
				cfg.Render = true
			}
		}
		if f := cmd.Flags().Lookup("json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
		if f := cmd.Flags().Lookup("quiet"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "error"
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
