// Package fetcher retrieves raw markup for a URL. The static fetcher uses
// plain HTTP and covers km77, which is server-rendered; the rendered
// fetcher drives headless Chrome for pages that only exist after script
// execution.
package fetcher

import (
	"context"
	"errors"
)

// ErrTooManyRedirects marks a fetch that exhausted its redirect budget.
// Callers treat it like any other fetch failure: no markup.
var ErrTooManyRedirects = errors.New("too many redirects")

// Fetcher retrieves the raw markup behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
