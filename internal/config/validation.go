package config

import "fmt"

func validate(c *Config) error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.FetchWorkers <= 0 || c.FetchWorkers > DefaultMaxFetchWorkers {
		return fmt.Errorf("workers must be between 1 and %d", DefaultMaxFetchWorkers)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be > 0")
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache size must be > 0")
	}
	return nil
}
