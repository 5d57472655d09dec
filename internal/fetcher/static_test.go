package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexx-ftw/km77-scraper/internal/cache"
)

func newTestFetcher(c cache.Cache) *Static {
	return NewStatic(c, nil, 5*time.Second, "test-agent", zerolog.Nop())
}

func TestStatic_Fetch(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, "<html><body>hola</body></html>")
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	markup, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(markup, "hola") {
		t.Errorf("Fetch() markup = %q, want body content", markup)
	}
	if gotAgent != "test-agent" {
		t.Errorf("User-Agent = %q, want %q", gotAgent, "test-agent")
	}
}

func TestStatic_FetchCacheHit(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	f := newTestFetcher(cache.NewLRU(8))
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("Fetch() #%d error = %v", i, err)
		}
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (subsequent fetches served from cache)", hits)
	}
}

func TestStatic_FetchNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("Fetch() error = nil, want error for 404")
	}
}

func TestStatic_FetchRedirectLoop(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("Fetch() error = %v, want ErrTooManyRedirects", err)
	}
}

func TestStatic_FetchCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFetcher(nil)
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatal("Fetch() error = nil, want context error")
	}
}
