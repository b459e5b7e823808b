package robots

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/temoto/robotstxt"

	"github.com/use-agent/harvester/cache"
	"github.com/use-agent/harvester/engine"
)

const robotsTxt = `User-agent: *
Disallow: /private/
Crawl-delay: 2

User-agent: harvester
Disallow: /admin
Allow: /admin/public
Crawl-delay: 3
`

type countingFetcher struct {
	status int
	body   string
	err    error
	calls  atomic.Int32
	last   atomic.Value
}

func (f *countingFetcher) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	f.calls.Add(1)
	f.last.Store(req.URL)
	if f.err != nil {
		return nil, f.err
	}
	return &engine.FetchResult{StatusCode: f.status, Body: []byte(f.body), ContentType: "text/plain"}, nil
}

func newTestAgent(t *testing.T, f engine.Fetcher, agent string) *Agent {
	t.Helper()
	c := cache.New[string, *robotstxt.RobotsData](10, time.Minute)
	t.Cleanup(c.Stop)
	return NewAgent(f, agent, c)
}

func TestAgent_MatchesOwnGroup(t *testing.T) {
	f := &countingFetcher{status: 200, body: robotsTxt}
	a := newTestAgent(t, f, "harvester")
	ctx := context.Background()

	assert.False(t, a.Allowed(ctx, "https://example.com/admin/users"))
	assert.True(t, a.Allowed(ctx, "https://example.com/admin/public/page"))
	assert.True(t, a.Allowed(ctx, "https://example.com/private/x"), "own group replaces the * group")
	assert.Equal(t, 3*time.Second, a.CrawlDelay(ctx, "https://example.com/"))
	assert.Equal(t, "https://example.com/robots.txt", f.last.Load())
}

func TestAgent_FallsBackToWildcardGroup(t *testing.T) {
	f := &countingFetcher{status: 200, body: robotsTxt}
	a := newTestAgent(t, f, "otherbot")
	ctx := context.Background()

	assert.False(t, a.Allowed(ctx, "https://example.com/private/x"))
	assert.True(t, a.Allowed(ctx, "https://example.com/admin"))
	assert.Equal(t, 2*time.Second, a.CrawlDelay(ctx, "https://example.com/"))
}

func TestAgent_CachesPerOrigin(t *testing.T) {
	f := &countingFetcher{status: 200, body: robotsTxt}
	a := newTestAgent(t, f, "")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a.Allowed(ctx, "https://example.com/page")
	}
	assert.EqualValues(t, 1, f.calls.Load())

	a.Allowed(ctx, "https://other.example/page")
	assert.EqualValues(t, 2, f.calls.Load())

	a.Purge("https://example.com/")
	a.Allowed(ctx, "https://example.com/page")
	assert.EqualValues(t, 3, f.calls.Load())
}

func TestAgent_Cached(t *testing.T) {
	f := &countingFetcher{status: 200, body: robotsTxt}
	a := newTestAgent(t, f, "")
	ctx := context.Background()

	assert.False(t, a.Cached("https://example.com/page"))
	a.Allowed(ctx, "https://example.com/page")
	assert.True(t, a.Cached("https://EXAMPLE.com/other"))
	assert.False(t, a.Cached("http://example.com/page"), "scheme is part of the origin")
	assert.True(t, a.Cached("/relative"))
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestAgent_StatusHandling(t *testing.T) {
	ctx := context.Background()

	notFound := newTestAgent(t, &countingFetcher{status: 404}, "")
	assert.True(t, notFound.Allowed(ctx, "https://example.com/anything"))

	unavailable := newTestAgent(t, &countingFetcher{status: 503}, "")
	assert.False(t, unavailable.Allowed(ctx, "https://example.com/anything"))
}

func TestAgent_FailsOpen(t *testing.T) {
	a := newTestAgent(t, &countingFetcher{err: errors.New("dial tcp: refused")}, "")
	ctx := context.Background()

	assert.True(t, a.Allowed(ctx, "https://example.com/private/x"))
	assert.Zero(t, a.CrawlDelay(ctx, "https://example.com/"))
}

func TestAgent_RejectsRelativeURL(t *testing.T) {
	a := newTestAgent(t, &countingFetcher{status: 200}, "")
	assert.False(t, a.Allowed(context.Background(), "/relative"))
}
