package engine

import (
	"context"
	"net/http"
	"time"
)

// Fetcher retrieves a single page. A non-2xx status is reported through
// FetchResult.StatusCode, not as an error; errors are reserved for transport
// failures, timeouts and unreadable bodies.
type Fetcher interface {
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FetchResult is the output of a completed fetch.
type FetchResult struct {
	StatusCode  int
	Body        []byte
	ContentType string
	FinalURL    string
}

// OK reports whether the status is 2xx.
func (r *FetchResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsHTML reports whether the response looks like an HTML document. A missing
// Content-Type is treated as HTML.
func (r *FetchResult) IsHTML() bool {
	if r.ContentType == "" {
		return true
	}
	return isHTMLContentType(r.ContentType)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

func (f FetcherFunc) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	return f(ctx, req)
}

// ChromeUA is the desktop Chrome User-Agent sent by default.
const ChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// BrowserHeaders returns the desktop-browser header set used for page requests.
func BrowserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":                ChromeUA,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Accept-Encoding":           "gzip, deflate, br",
		"Cache-Control":             "no-cache",
		"Pragma":                    "no-cache",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
	}
}

// applyHeaders copies headers onto req, later maps overriding earlier ones.
func applyHeaders(req *http.Request, sets ...map[string]string) {
	for _, set := range sets {
		for k, v := range set {
			req.Header.Set(k, v)
		}
	}
}
