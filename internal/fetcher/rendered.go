package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/alexx-ftw/km77-scraper/internal/cache"
	"github.com/alexx-ftw/km77-scraper/internal/ratelimit"
)

// Rendered fetches pages through headless Chrome. km77 listing pages are
// server-rendered, so this is only needed when the site moves content
// behind script execution.
type Rendered struct {
	cache     cache.Cache
	limiter   ratelimit.Limiter
	timeout   time.Duration
	userAgent string
	log       zerolog.Logger
}

// NewRendered creates a Rendered fetcher. Each Fetch spawns its own
// browser so a crashed tab never poisons the next page.
func NewRendered(c cache.Cache, lim ratelimit.Limiter, timeout time.Duration, userAgent string, log zerolog.Logger) *Rendered {
	return &Rendered{
		cache:     c,
		limiter:   lim,
		timeout:   timeout,
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch navigates to url in headless Chrome and returns the outer HTML of
// the document after initial script execution.
func (r *Rendered) Fetch(ctx context.Context, url string) (string, error) {
	if r.cache != nil {
		if markup, ok := r.cache.Get(url); ok {
			r.log.Debug().Str("url", url).Msg("cache hit")
			return markup, nil
		}
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, url); err != nil {
			return "", fmt.Errorf("rate limit wait for %s: %w", url, err)
		}
	}

	start := time.Now()

	fetchCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("mute-audio", true),
		chromedp.UserAgent(r.userAgent),
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(fetchCtx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var markup string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Give the initial scripts a moment to settle.
			select {
			case <-time.After(300 * time.Millisecond):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}

	if r.cache != nil {
		r.cache.Set(url, markup)
	}

	r.log.Debug().
		Str("url", url).
		Int("bytes", len(markup)).
		Dur("elapsed", time.Since(start)).
		Msg("rendered")

	return markup, nil
}
