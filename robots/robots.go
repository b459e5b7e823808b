// Package robots answers robots.txt questions for the crawler. Rules are
// fetched once per scheme and host and kept in an injected TTL cache.
package robots

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/use-agent/harvester/cache"
	"github.com/use-agent/harvester/engine"
)

// DefaultUserAgent is the product token matched against robots groups.
const DefaultUserAgent = "harvester"

const fetchTimeout = 10 * time.Second

// Agent evaluates robots.txt rules. It fails open: when robots.txt cannot be
// fetched every path is allowed.
type Agent struct {
	fetcher   engine.Fetcher
	userAgent string
	cache     *cache.TTL[string, *robotstxt.RobotsData]
	log       *slog.Logger
}

// NewAgent creates an Agent that fetches robots.txt through fetcher and
// caches parsed rules in c.
func NewAgent(fetcher engine.Fetcher, userAgent string, c *cache.TTL[string, *robotstxt.RobotsData]) *Agent {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Agent{
		fetcher:   fetcher,
		userAgent: userAgent,
		cache:     c,
		log:       slog.Default(),
	}
}

// Allowed reports whether rawURL may be fetched. Unparsable or relative URLs
// are not allowed.
func (a *Agent) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	data := a.rules(ctx, u)
	if data == nil {
		return true
	}
	return data.TestAgent(u.RequestURI(), a.userAgent)
}

// CrawlDelay returns the Crawl-delay that applies to rawURL's host, or 0.
func (a *Agent) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return 0
	}
	data := a.rules(ctx, u)
	if data == nil {
		return 0
	}
	return data.FindGroup(a.userAgent).CrawlDelay
}

// Cached reports whether rawURL can be answered without fetching
// robots.txt, either because its origin's rules are cached or because the
// URL is rejected outright.
func (a *Agent) Cached(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return true
	}
	_, ok := a.cache.Get(originOf(u))
	return ok
}

func originOf(u *url.URL) string {
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

// rules returns the parsed robots.txt for u's origin, or nil when it could
// not be fetched.
func (a *Agent) rules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	origin := originOf(u)
	if data, ok := a.cache.Get(origin); ok {
		return data
	}

	res, err := a.fetcher.Fetch(ctx, &engine.FetchRequest{
		URL:     origin + "/robots.txt",
		Headers: map[string]string{"Accept": "text/plain,*/*;q=0.8"},
		Timeout: fetchTimeout,
	})
	if err != nil {
		a.log.Warn("robots: fetch failed, allowing all", "origin", origin, "error", err)
		return nil
	}

	// 4xx means "no restrictions", 5xx means "disallow all" until the entry expires.
	data, err := robotstxt.FromStatusAndBytes(res.StatusCode, res.Body)
	if err != nil {
		a.log.Warn("robots: parse failed, allowing all", "origin", origin, "error", err)
		return nil
	}

	a.cache.Set(origin, data)
	return data
}

// Purge forgets the cached rules for an origin such as "https://example.com".
func (a *Agent) Purge(origin string) {
	a.cache.Delete(strings.ToLower(strings.TrimRight(origin, "/")))
}
