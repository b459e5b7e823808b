package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/harvester/models"
)

// LinkFilter decides whether a discovered link may be followed. It is built
// once per crawl and holds no crawl state.
type LinkFilter struct {
	seedHost string
	allowed  []string
	exclude  []*regexp.Regexp
}

// NewLinkFilter compiles opts.ExcludePatterns (nil selects
// models.DefaultExcludePatterns) and normalises opts.AllowedDomains.
func NewLinkFilter(seedHost string, opts models.CrawlOptions) (*LinkFilter, error) {
	patterns := opts.ExcludePatterns
	if patterns == nil {
		patterns = models.DefaultExcludePatterns()
	}

	f := &LinkFilter{seedHost: strings.ToLower(seedHost)}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, re)
	}
	for _, d := range opts.AllowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "*.")
		d = strings.Trim(d, ".")
		if d != "" {
			f.allowed = append(f.allowed, d)
		}
	}
	return f, nil
}

// IsEligible reports whether candidate is an absolute http(s) URL that no
// exclude pattern matches and whose host is admitted.
func (f *LinkFilter) IsEligible(candidate string) bool {
	for _, re := range f.exclude {
		if re.MatchString(candidate) {
			return false
		}
	}
	u, err := url.Parse(candidate)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return false
	}
	return f.admitsHost(strings.ToLower(u.Hostname()))
}

func (f *LinkFilter) admitsHost(host string) bool {
	if len(f.allowed) == 0 {
		return host == f.seedHost
	}
	for _, d := range f.allowed {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// IsEligible is the one-shot form of LinkFilter.IsEligible. An invalid
// exclude pattern makes every candidate ineligible.
func IsEligible(candidateURL, seedHost string, opts models.CrawlOptions) bool {
	f, err := NewLinkFilter(seedHost, opts)
	if err != nil {
		return false
	}
	return f.IsEligible(candidateURL)
}

// canonicalURL resolves ref against base and returns it in canonical form.
// ok is false for unparsable references.
func canonicalURL(base *url.URL, ref string) (string, bool) {
	u, err := base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	canonicalize(u)
	return u.String(), true
}

// canonicalize lowercases scheme and host, gives a hostful URL with no path
// the root path and drops the fragment. The visited set and the link filter
// both key on this form.
func canonicalize(u *url.URL) {
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Host != "" && u.Opaque == "" && u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	u.Fragment = ""
	u.RawFragment = ""
}

// normalizeSeed validates the seed and returns it in absolute form. A
// missing scheme is taken to mean https.
func normalizeSeed(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("seed URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("seed URL is malformed: %w", err)
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return nil, fmt.Errorf("seed URL scheme %q is not http or https", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("seed URL has no host")
	}
	canonicalize(u)
	return u, nil
}
