package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexx-ftw/km77-scraper/internal/cache"
	"github.com/alexx-ftw/km77-scraper/internal/ratelimit"
)

const maxRedirects = 10

// Static fetches pages over plain HTTP. Responses are cached in memory by
// URL for the duration of the run.
type Static struct {
	client    *http.Client
	cache     cache.Cache
	limiter   ratelimit.Limiter
	userAgent string
	log       zerolog.Logger
}

// NewStatic creates a Static fetcher with a keep-alive HTTP client.
func NewStatic(c cache.Cache, lim ratelimit.Limiter, timeout time.Duration, userAgent string, log zerolog.Logger) *Static {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}

	return &Static{
		client:    client,
		cache:     c,
		limiter:   lim,
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch returns the raw markup behind url. Redirect exhaustion surfaces as
// ErrTooManyRedirects.
func (s *Static) Fetch(ctx context.Context, url string) (string, error) {
	if s.cache != nil {
		if markup, ok := s.cache.Get(url); ok {
			s.log.Debug().Str("url", url).Msg("cache hit")
			return markup, nil
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, url); err != nil {
			return "", fmt.Errorf("rate limit wait for %s: %w", url, err)
		}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		// The client wraps the CheckRedirect error in a url.Error.
		if errors.Is(err, ErrTooManyRedirects) {
			return "", fmt.Errorf("fetching %s: %w", url, ErrTooManyRedirects)
		}
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", url, err)
	}

	markup := string(body)
	if s.cache != nil {
		s.cache.Set(url, markup)
	}

	s.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("bytes", len(markup)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")

	return markup, nil
}
