// Package crawler implements the bounded recursive harvester: starting from a
// seed URL it fetches pages on the same site up to a depth and page budget,
// extracts their readable text and returns them in discovery order.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/use-agent/harvester/cleaner"
	"github.com/use-agent/harvester/engine"
	"github.com/use-agent/harvester/models"
	"github.com/use-agent/harvester/simhash"
)

// DefaultRequestTimeout bounds each fetch.
const DefaultRequestTimeout = 30 * time.Second

// Extractor turns a fetched HTML document into a title, its readable content
// and the link targets it contains. *cleaner.Extractor implements it.
type Extractor interface {
	Extract(rawHTML, sourceURL string) (title, content string)
	Links(rawHTML, sourceURL string) []string
}

// errRedirectPruned marks a page whose redirect led somewhere the crawl does
// not go.
var errRedirectPruned = errors.New("redirect target pruned")

// normalizer is implemented by extractors whose output format has its own
// whitespace rules. Other extractors get cleaner.NormalizeText.
type normalizer interface {
	Normalize(content string) string
}

// RobotsChecker answers robots.txt questions for a URL. *robots.Agent
// implements it. Cached reports whether answering needs no robots.txt
// request; such requests are spaced like page requests.
type RobotsChecker interface {
	Allowed(ctx context.Context, rawURL string) bool
	CrawlDelay(ctx context.Context, rawURL string) time.Duration
	Cached(rawURL string) bool
}

// Crawler harvests pages. A Crawler holds configuration only; every Crawl
// call owns its own state, so one Crawler may run many crawls concurrently.
type Crawler struct {
	fetcher        engine.Fetcher
	extractor      Extractor
	delay          time.Duration
	requestTimeout time.Duration
	concurrency    int
	maxChars       int
	nearDup        int
	clock          Clock
	robots         RobotsChecker
	log            *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithDelay sets the minimum spacing between request starts. 0 disables it.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) { c.delay = d }
}

// WithRequestTimeout bounds every individual fetch.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Crawler) { c.requestTimeout = d }
}

// WithConcurrency sets the number of parallel fetch workers. Values above 1
// switch traversal from depth-first to level-by-level.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithMaxContentChars overrides models.MaxContentChars.
func WithMaxContentChars(n int) Option {
	return func(c *Crawler) { c.maxChars = n }
}

// WithNearDuplicateDistance drops pages whose content SimHash is within d
// bits of an already collected page. Their links are still followed.
func WithNearDuplicateDistance(d int) Option {
	return func(c *Crawler) { c.nearDup = d }
}

// WithClock replaces the wall clock used for request spacing.
func WithClock(clock Clock) Option {
	return func(c *Crawler) { c.clock = clock }
}

// WithRobots enables robots.txt checks and Crawl-delay.
func WithRobots(r RobotsChecker) Option {
	return func(c *Crawler) { c.robots = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) { c.log = l }
}

// New creates a Crawler.
func New(fetcher engine.Fetcher, extractor Extractor, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:        fetcher,
		extractor:      extractor,
		delay:          DefaultDelay,
		requestTimeout: DefaultRequestTimeout,
		concurrency:    1,
		maxChars:       models.MaxContentChars,
		clock:          realClock{},
		log:            slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Crawl fetches seedURL and the pages reachable from it within opts, and
// returns them seed first.
//
// Failures of individual linked pages are logged and pruned. A seed that
// cannot be validated or fetched is fatal and yields a *models.HarvestError.
// When ctx ends mid-crawl the pages collected so far are returned together
// with a CANCELED or SCRAPE_TIMEOUT error. A crawl that finishes without
// collecting anything returns models.ErrNoContent.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, opts models.CrawlOptions) ([]models.ScrapedPage, error) {
	seed, err := normalizeSeed(seedURL)
	if err != nil {
		return nil, invalidInput(seedURL, err)
	}
	if opts.MaxDepth < 0 {
		return nil, invalidInput(seedURL, fmt.Errorf("max depth %d is negative", opts.MaxDepth))
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = models.DefaultMaxPages
	}
	filter, err := NewLinkFilter(seed.Hostname(), opts)
	if err != nil {
		return nil, invalidInput(seedURL, err)
	}

	r := &run{
		c:      c,
		opts:   opts,
		filter: filter,
		state:  newCrawlState(opts.MaxPages),
		seed:   seed.String(),
	}

	delay := c.delay
	robotsFetched := false
	if c.robots != nil {
		robotsFetched = !c.robots.Cached(r.seed)
		if !c.robots.Allowed(ctx, r.seed) {
			return nil, &models.HarvestError{
				Code:    models.ErrCodeRobotsDisallowed,
				Message: "robots.txt disallows the seed URL",
				URL:     r.seed,
			}
		}
		if !c.robots.Cached(r.seed) {
			c.log.Debug("crawl: robots.txt unavailable, no crawl-delay", "url", r.seed)
		} else if cd := c.robots.CrawlDelay(ctx, r.seed); cd > delay {
			c.log.Info("crawl: using robots.txt crawl-delay", "url", r.seed, "delay", cd)
			delay = cd
		}
	}
	r.throttle = newThrottle(delay, c.clock)
	if robotsFetched {
		r.throttle.Spend()
	}

	start := time.Now()
	c.log.Info("crawl: started",
		"url", r.seed,
		"max_depth", opts.MaxDepth,
		"max_pages", opts.MaxPages,
		"concurrency", c.concurrency,
	)

	if c.concurrency > 1 {
		err = r.crawlLevels(ctx)
	} else {
		err = r.visit(ctx, r.seed, 0)
	}

	pages := r.state.pages()
	c.log.Info("crawl: finished",
		"url", r.seed,
		"pages", len(pages),
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	if err != nil {
		return pages, err
	}
	if len(pages) == 0 {
		return nil, models.ErrNoContent
	}
	return pages, nil
}

// run is one Crawl invocation.
type run struct {
	c        *Crawler
	opts     models.CrawlOptions
	filter   *LinkFilter
	state    *crawlState
	throttle *throttle
	seed     string
}

// visit expands pageURL depth-first. Only errors that end the whole crawl
// are returned.
func (r *run) visit(ctx context.Context, pageURL string, depth int) error {
	links, err := r.step(ctx, pageURL, depth)
	if err != nil {
		return err
	}
	if depth >= r.opts.MaxDepth {
		return nil
	}
	for _, link := range links {
		if r.state.full() {
			break
		}
		if err := r.visit(ctx, link, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// step admits, fetches and records a single page and returns its eligible
// links. Pruned pages return no links and no error.
func (r *run) step(ctx context.Context, pageURL string, depth int) ([]string, error) {
	if depth > r.opts.MaxDepth {
		return nil, nil
	}
	if !r.state.admit(pageURL) {
		return nil, nil
	}

	page, fp, err := r.scrape(ctx, pageURL, depth)
	if err != nil {
		r.state.release()
		if cerr := contextError(ctx, pageURL); cerr != nil {
			return nil, cerr
		}
		if depth == 0 {
			r.c.log.Error("crawl: seed failed", "url", pageURL, "code", models.CodeOf(err), "error", err)
			return nil, err
		}
		switch {
		case models.CodeOf(err) == models.ErrCodeRobotsDisallowed:
			r.c.log.Debug("crawl: disallowed by robots.txt", "url", pageURL)
		case errors.Is(err, errRedirectPruned):
			r.c.log.Debug("crawl: redirect pruned", "url", pageURL, "error", err)
		default:
			r.c.log.Warn("crawl: page skipped", "url", pageURL, "depth", depth, "code", models.CodeOf(err), "error", err)
		}
		return nil, nil
	}

	if !r.state.commit(page, fp, r.c.nearDup) {
		r.c.log.Debug("crawl: near-duplicate content dropped", "url", pageURL, "depth", depth)
	}
	return page.Links, nil
}

// scrape fetches pageURL and builds its page record.
func (r *run) scrape(ctx context.Context, pageURL string, depth int) (models.ScrapedPage, uint64, error) {
	if err := contextError(ctx, pageURL); err != nil {
		return models.ScrapedPage{}, 0, err
	}
	if depth > 0 && r.c.robots != nil {
		if !r.c.robots.Cached(pageURL) {
			if err := r.throttle.Wait(ctx); err != nil {
				return models.ScrapedPage{}, 0, err
			}
		}
		if !r.c.robots.Allowed(ctx, pageURL) {
			return models.ScrapedPage{}, 0, &models.HarvestError{
				Code: models.ErrCodeRobotsDisallowed, Message: "disallowed by robots.txt", URL: pageURL,
			}
		}
	}
	if err := r.throttle.Wait(ctx); err != nil {
		return models.ScrapedPage{}, 0, err
	}

	res, err := r.fetch(ctx, pageURL)
	if err != nil {
		return models.ScrapedPage{}, 0, err
	}

	base, err := r.redirectTarget(pageURL, res.FinalURL, depth)
	if err != nil {
		return models.ScrapedPage{}, 0, err
	}

	body := string(res.Body)
	title, content := r.c.extractor.Extract(body, base)
	content = cleaner.Truncate(r.normalize(content), r.c.maxChars)

	page := models.ScrapedPage{
		URL:     pageURL,
		Title:   title,
		Content: content,
		Links:   r.eligibleLinks(base, r.c.extractor.Links(body, base)),
		Depth:   depth,
	}

	var fp uint64
	if r.c.nearDup > 0 {
		fp = simhash.Fingerprint(content)
	}
	return page, fp, nil
}

// redirectTarget returns the URL pageURL was served from. Below the seed a
// redirect to a page that is ineligible or already visited is pruned with
// errRedirectPruned. An accepted target is marked visited.
func (r *run) redirectTarget(pageURL, finalURL string, depth int) (string, error) {
	if finalURL == "" || finalURL == pageURL {
		return pageURL, nil
	}
	u, err := url.Parse(finalURL)
	if err != nil {
		return pageURL, nil
	}
	final, ok := canonicalURL(u, "")
	if !ok || final == pageURL {
		return pageURL, nil
	}
	if depth > 0 && !r.filter.IsEligible(final) {
		return "", fmt.Errorf("%w: %s is not eligible", errRedirectPruned, final)
	}
	if !r.state.markVisited(final) && depth > 0 {
		return "", fmt.Errorf("%w: %s already visited", errRedirectPruned, final)
	}
	return final, nil
}

func (r *run) normalize(content string) string {
	if n, ok := r.c.extractor.(normalizer); ok {
		return n.Normalize(content)
	}
	return cleaner.NormalizeText(content)
}

// fetch performs the request and classifies the outcome.
func (r *run) fetch(ctx context.Context, pageURL string) (*engine.FetchResult, error) {
	fctx := ctx
	if r.c.requestTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, r.c.requestTimeout)
		defer cancel()
	}

	res, err := r.c.fetcher.Fetch(fctx, &engine.FetchRequest{
		URL:     pageURL,
		Headers: r.opts.Headers,
		Timeout: r.c.requestTimeout,
	})
	if err != nil {
		if cerr := contextError(ctx, pageURL); cerr != nil {
			return nil, cerr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &models.HarvestError{Code: models.ErrCodeTimeout, Message: "request timed out", URL: pageURL, Err: err}
		}
		return nil, &models.HarvestError{Code: models.ErrCodeFetchFailed, Message: "request failed", URL: pageURL, Err: err}
	}

	if !res.OK() {
		if res.StatusCode == http.StatusForbidden {
			r.c.log.Warn("crawl: HTTP 403, likely bot-blocked", "url", pageURL)
			return nil, &models.HarvestError{
				Code: models.ErrCodeBotBlocked, Message: "HTTP 403 (likely bot-blocked)",
				URL: pageURL, StatusCode: res.StatusCode,
			}
		}
		return nil, &models.HarvestError{
			Code: models.ErrCodeHTTPStatus, Message: fmt.Sprintf("HTTP %d", res.StatusCode),
			URL: pageURL, StatusCode: res.StatusCode,
		}
	}
	if !res.IsHTML() {
		return nil, &models.HarvestError{
			Code: models.ErrCodeUnsupportedContent, Message: "content type " + res.ContentType + " is not HTML",
			URL: pageURL, StatusCode: res.StatusCode,
		}
	}
	return res, nil
}

// eligibleLinks resolves raw link targets against base, drops fragments and
// returns the de-duplicated eligible ones in discovery order.
func (r *run) eligibleLinks(base string, raw []string) []string {
	bu, err := url.Parse(base)
	if err != nil {
		return nil
	}
	self, _ := canonicalURL(bu, "")

	seen := map[string]struct{}{self: {}}
	var links []string
	for _, ref := range raw {
		abs, ok := canonicalURL(bu, ref)
		if !ok {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		if r.filter.IsEligible(abs) {
			links = append(links, abs)
		}
	}
	return links
}

// contextError converts a finished ctx into a HarvestError.
func contextError(ctx context.Context, pageURL string) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return &models.HarvestError{Code: models.ErrCodeTimeout, Message: "crawl deadline exceeded", URL: pageURL, Err: err}
	default:
		return &models.HarvestError{Code: models.ErrCodeCanceled, Message: "crawl canceled", URL: pageURL, Err: err}
	}
}

func invalidInput(seedURL string, err error) error {
	return &models.HarvestError{
		Code:    models.ErrCodeInvalidInput,
		Message: err.Error(),
		URL:     seedURL,
		Err:     err,
	}
}
