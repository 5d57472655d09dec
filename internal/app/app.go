// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/alexx-ftw/km77-scraper/internal/cache"
	"github.com/alexx-ftw/km77-scraper/internal/config"
	"github.com/alexx-ftw/km77-scraper/internal/fetcher"
	"github.com/alexx-ftw/km77-scraper/internal/parser"
	"github.com/alexx-ftw/km77-scraper/internal/ratelimit"
	"github.com/alexx-ftw/km77-scraper/internal/store"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Cache       cache.Cache
	RateLimiter ratelimit.Limiter
	Fetcher     fetcher.Fetcher
	Parser      *parser.Parser
	Store       *store.Store
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It configures logging from the provided config, creates the markup cache
// and per-host rate limiter, opens the sqlite store, and builds the fetcher
// (plain HTTP, or headless Chrome when rendering is requested).
//
// If any step fails, an error is returned and no resources stay allocated.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logLevel := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	logger := log.Output(logWriter).With().Timestamp().Logger()

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	memCache := cache.NewLRU(cfg.CacheMaxEntries)
	logger.Debug().
		Int("max_entries", cfg.CacheMaxEntries).
		Msg("Markup cache initialized")

	rateLimiter := ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	var f fetcher.Fetcher
	if cfg.Render {
		f = fetcher.NewRendered(memCache, rateLimiter, cfg.HTTPTimeout, cfg.UserAgent, logger)
		logger.Debug().Msg("Rendered fetcher initialized")
	} else {
		f = fetcher.NewStatic(memCache, rateLimiter, cfg.HTTPTimeout, cfg.UserAgent, logger)
		logger.Debug().Dur("timeout", cfg.HTTPTimeout).Msg("Static fetcher initialized")
	}

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug().Str("path", cfg.DBPath).Msg("Store opened")

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Cache:       memCache,
		RateLimiter: rateLimiter,
		Fetcher:     f,
		Parser:      parser.New(logger),
		Store:       st,
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized")
	return app, nil
}

// Close gracefully shuts down the application. Errors during shutdown are
// logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
		}
	}

	uptime := time.Since(a.startTime)
	a.Logger.Debug().Dur("uptime", uptime).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
