package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel        = "info"
	DefaultJSONLog         = false
	DefaultBaseURL         = "https://www.km77.com"
	DefaultDBPath          = "km77.db"
	DefaultUserAgent       = "km77-scraper/1.0 (https://github.com/alexx-ftw/km77-scraper)"
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultRateLimitRPS    = 2.0
	DefaultRateLimitBurst  = 4
	DefaultFetchWorkers    = 4
	DefaultMaxFetchWorkers = 16
	DefaultCacheMaxEntries = 256
)
