package models

import "time"

// Crawl defaults.
const (
	DefaultMaxDepth = 2
	DefaultMaxPages = 10

	// MaxContentChars caps the extracted text of a single page (in runes).
	MaxContentChars = 50000

	// NoContentSentinel is what FormatForStorage returns for an empty crawl.
	NoContentSentinel = "No content scraped"
)

// CrawlOptions bounds a single crawl. The crawler never mutates it.
type CrawlOptions struct {
	// MaxDepth is the number of link hops followed from the seed.
	// 0 fetches the seed only.
	MaxDepth int `json:"max_depth"`

	// MaxPages is the hard cap on collected pages. Values <= 0 mean DefaultMaxPages.
	MaxPages int `json:"max_pages"`

	// AllowedDomains admits these hosts and their subdomains.
	// Empty restricts the crawl to the seed's exact hostname.
	AllowedDomains []string `json:"allowed_domains,omitempty"`

	// ExcludePatterns are regular expressions matched against the absolute
	// candidate URL. nil selects DefaultExcludePatterns; a non-nil slice
	// replaces them.
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`

	// Headers override or extend the browser header set for every request.
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultCrawlOptions returns the options used when the caller supplies none.
func DefaultCrawlOptions() CrawlOptions {
	return CrawlOptions{
		MaxDepth: DefaultMaxDepth,
		MaxPages: DefaultMaxPages,
	}
}

// DefaultExcludePatterns skips binary/media files and pseudo-URLs.
func DefaultExcludePatterns() []string {
	return []string{
		`(?i)\.(pdf|jpe?g|png|gif|bmp|svg|webp|ico|tiff?|avif)([?#].*)?$`,
		`(?i)\.(mp3|mp4|m4a|avi|mov|wmv|flv|mkv|webm|wav|ogg)([?#].*)?$`,
		`(?i)\.(zip|rar|7z|tar|gz|tgz|bz2|xz|exe|dmg|msi|iso|apk|deb|rpm)([?#].*)?$`,
		`(?i)\.(css|js|json|xml|rss|woff2?|ttf|eot|docx?|xlsx?|pptx?|csv)([?#].*)?$`,
		`(?i)^mailto:`,
		`(?i)^tel:`,
		`(?i)^javascript:`,
		`^#`,
	}
}

// ScrapedPage is one harvested page.
type ScrapedPage struct {
	// URL is the absolute URL that was fetched.
	URL string `json:"url"`

	// Title is the <title> text, else the first heading, else "Untitled".
	Title string `json:"title"`

	// Content is whitespace-collapsed plain text (or Markdown), at most
	// MaxContentChars runes.
	Content string `json:"content"`

	// Links are the de-duplicated, filtered absolute URLs found on the page.
	Links []string `json:"links,omitempty"`

	// Depth is the number of hops from the seed.
	Depth int `json:"depth"`
}

// CrawlRequest is the payload for POST /api/v1/crawl.
type CrawlRequest struct {
	// URL is the seed page. Required.
	URL string `json:"url" binding:"required"`

	// MaxDepth limits link hops from the seed. Default: 2.
	MaxDepth *int `json:"max_depth,omitempty" binding:"omitempty,min=0,max=10"`

	// MaxPages caps the number of pages. Default: 10.
	MaxPages int `json:"max_pages,omitempty" binding:"omitempty,min=1"`

	AllowedDomains  []string          `json:"allowed_domains,omitempty"`
	ExcludePatterns []string          `json:"exclude_patterns,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`

	// IncludePages returns the individual page records next to the formatted text.
	IncludePages bool `json:"include_pages,omitempty"`

	// Store persists the harvest record when a store is configured.
	Store bool `json:"store,omitempty"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Options converts the request into CrawlOptions, applying defaults.
func (r *CrawlRequest) Options(defaultDepth, defaultPages int) CrawlOptions {
	opts := CrawlOptions{
		MaxDepth:        defaultDepth,
		MaxPages:        r.MaxPages,
		AllowedDomains:  r.AllowedDomains,
		ExcludePatterns: r.ExcludePatterns,
		Headers:         r.Headers,
	}
	if r.MaxDepth != nil {
		opts.MaxDepth = *r.MaxDepth
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultPages
	}
	return opts
}

// CrawlResponse is the response for POST /api/v1/crawl.
type CrawlResponse struct {
	Success bool `json:"success"`

	// RecordID is set when the record was persisted.
	RecordID int64 `json:"record_id,omitempty"`

	SeedURL   string        `json:"seed_url"`
	PageCount int           `json:"page_count"`
	Size      string        `json:"size,omitempty"`
	Tokens    int           `json:"tokens,omitempty"`
	Content   string        `json:"content,omitempty"`
	Pages     []ScrapedPage `json:"pages,omitempty"`

	Timing TimingInfo   `json:"timing"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`
}

// StoredRecord is a persisted harvest.
type StoredRecord struct {
	ID        int64     `json:"id"`
	SeedURL   string    `json:"seed_url"`
	Content   string    `json:"content,omitempty"`
	PageCount int       `json:"page_count"`
	Size      string    `json:"size"`
	Bytes     int       `json:"bytes"`
	Tokens    int       `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`

	// Pages lists the collected pages without their content. Only Get fills it.
	Pages []ScrapedPage `json:"pages,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Store   string `json:"store"`
	Version string `json:"version"`
}
