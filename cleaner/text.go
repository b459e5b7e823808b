package cleaner

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[^\S\n]+`)
	lineEdgeSpaceRe   = regexp.MustCompile(` ?\n ?`)
	excessNewlinesRe  = regexp.MustCompile(`\n{3,}`)
	anySpaceRe        = regexp.MustCompile(`\s+`)
	blankLineRe       = regexp.MustCompile(`(?m)^[^\S\n]+$`)
)

// NormalizeText collapses runs of horizontal whitespace to one space, trims
// spaces at line edges, reduces three or more consecutive newlines to two and
// trims the result.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalSpaceRe.ReplaceAllString(s, " ")
	s = lineEdgeSpaceRe.ReplaceAllString(s, "\n")
	s = excessNewlinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// NormalizeMarkdown reduces three or more consecutive newlines to two and
// trims blank lines at both ends. Indentation and inner spacing are kept.
func NormalizeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = blankLineRe.ReplaceAllString(s, "")
	s = excessNewlinesRe.ReplaceAllString(s, "\n\n")
	s = strings.TrimRightFunc(s, isSpace)
	return strings.TrimLeft(s, "\n")
}

// Truncate returns s cut to at most maxChars runes. maxChars <= 0 disables it.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return strings.TrimRightFunc(s[:i], isSpace)
		}
		n++
	}
	return s
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}

// blockTags start a new line in extracted text.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

// skipTags never contribute text even if they survived stripping.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// nodesText renders the visible text of nodes, breaking lines at block
// elements. goquery's Text() concatenates siblings without separators, which
// glues paragraphs and list items together.
func nodesText(nodes []*html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(anySpaceRe.ReplaceAllString(n.Data, " "))
			return
		case html.ElementNode:
			if skipTags[n.Data] {
				return
			}
		}
		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}
