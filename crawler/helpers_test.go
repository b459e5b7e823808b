package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvester/cleaner"
	"github.com/use-agent/harvester/engine"
	"github.com/use-agent/harvester/models"
)

const seedURL = "https://seed-domain.example/"

// fakeClock advances only when told to or when something sleeps on it.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// fakeSite serves HTML from memory. Unknown URLs are 404.
type fakeSite struct {
	mu      sync.Mutex
	pages   map[string]string
	status  map[string]int
	errs    map[string]error
	fetched []string

	// redirects maps a requested URL to the URL whose content is served
	// and reported as FinalURL.
	redirects map[string]string

	// Optional: record request starts on clock and spend latency per request.
	clock   *fakeClock
	latency time.Duration
	starts  []time.Time

	// Optional hook run before a URL is served.
	onFetch func(url string)
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:     make(map[string]string),
		status:    make(map[string]int),
		errs:      make(map[string]error),
		redirects: make(map[string]string),
	}
}

func (s *fakeSite) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, req.URL)
	if s.clock != nil {
		s.starts = append(s.starts, s.clock.Now())
		s.clock.Advance(s.latency)
	}
	hook := s.onFetch
	served := req.URL
	if to, ok := s.redirects[served]; ok {
		served = to
	}
	body, ok := s.pages[served]
	code, hasCode := s.status[served]
	err := s.errs[served]
	s.mu.Unlock()

	if hook != nil {
		hook(req.URL)
	}
	if err != nil {
		return nil, err
	}
	if hasCode {
		return &engine.FetchResult{StatusCode: code, Body: []byte("error"), ContentType: "text/html", FinalURL: served}, nil
	}
	if !ok {
		return &engine.FetchResult{StatusCode: 404, Body: []byte("not found"), ContentType: "text/html", FinalURL: served}, nil
	}
	return &engine.FetchResult{StatusCode: 200, Body: []byte(body), ContentType: "text/html; charset=utf-8", FinalURL: served}, nil
}

func (s *fakeSite) Fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetched...)
}

func (s *fakeSite) Starts() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.starts...)
}

// add registers a page at path whose <main> holds text and whose <nav>
// links to the given hrefs.
func (s *fakeSite) add(path, title, text string, hrefs ...string) {
	var nav strings.Builder
	for i, h := range hrefs {
		fmt.Fprintf(&nav, `<a href="%s">link %d</a> `, h, i)
	}
	html := fmt.Sprintf(`<html><head><title>%s</title></head><body><nav>%s</nav><main><p>%s</p></main></body></html>`,
		title, nav.String(), text)
	s.pages[abs(path)] = html
}

// fetcherWrapper overrides the content type of selected URLs.
type fetcherWrapper struct {
	inner *fakeSite
	types map[string]string
}

func (w fetcherWrapper) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	res, err := w.inner.Fetch(ctx, req)
	if err == nil {
		if ct, ok := w.types[req.URL]; ok {
			res.ContentType = ct
		}
	}
	return res, err
}

func abs(path string) string {
	return strings.TrimSuffix(seedURL, "/") + path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCrawler(t *testing.T, site engine.Fetcher, opts ...Option) *Crawler {
	t.Helper()
	ext, err := cleaner.NewExtractor(cleaner.Options{})
	require.NoError(t, err)
	base := []Option{WithDelay(0), WithLogger(discardLogger())}
	return New(site, ext, append(base, opts...)...)
}

func urls(pages []models.ScrapedPage) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.URL
	}
	return out
}

var errBoom = errors.New("connection reset by peer")
