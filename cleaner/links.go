package cleaner

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks returns the absolute targets of every <a href> in rawHTML, in
// document order and without duplicates. Relative hrefs resolve against
// <base href> when present, else sourceURL. Fragments are dropped, in-page
// anchors and links back to the page itself are skipped, and unparsable
// hrefs are ignored. Scheme and host filtering is left to the caller.
func ExtractLinks(rawHTML string, sourceURL string) []string {
	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	return documentLinks(doc, base)
}

func documentLinks(doc *goquery.Document, page *url.URL) []string {
	self := stripFragment(page)
	base := page
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := page.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	seen := map[string]struct{}{self: {}}
	links := []string{}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		abs := stripFragment(resolved)

		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links
}

// stripFragment renders u without its #fragment.
func stripFragment(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
