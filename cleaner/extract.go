package cleaner

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Extraction modes.
const (
	ModeSelector    = "selector"
	ModeReadability = "readability"
)

// Content formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// UntitledPage is the title used when a page has neither <title> nor a heading.
const UntitledPage = "Untitled"

// Options configures an Extractor.
type Options struct {
	// Mode selects how the main region is found: "selector" (default) walks
	// the selector cascade, "readability" runs go-readability first and falls
	// back to the cascade when its output is too short.
	Mode string

	// Format is "text" (default) or "markdown".
	Format string

	// Selectors overrides DefaultContentSelectors.
	Selectors []string
}

// Extractor turns raw HTML into a title and readable content. It holds no
// per-page state and is safe for concurrent use.
type Extractor struct {
	mode       string
	format     string
	candidates []cascadia.Selector
	noise      cascadia.Selector
	md         *converter.Converter
}

// NewExtractor validates opts and compiles the selector cascade.
func NewExtractor(opts Options) (*Extractor, error) {
	switch opts.Mode {
	case "":
		opts.Mode = ModeSelector
	case ModeSelector, ModeReadability:
	default:
		return nil, fmt.Errorf("cleaner: unknown extract mode %q", opts.Mode)
	}
	switch opts.Format {
	case "":
		opts.Format = FormatText
	case FormatText, FormatMarkdown:
	default:
		return nil, fmt.Errorf("cleaner: unknown format %q", opts.Format)
	}

	selectors := opts.Selectors
	if len(selectors) == 0 {
		selectors = DefaultContentSelectors
	}
	candidates, err := compileSelectors(selectors)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		mode:       opts.Mode,
		format:     opts.Format,
		candidates: candidates,
		noise:      cascadia.MustCompile(noiseSelector),
	}
	if opts.Format == FormatMarkdown {
		e.md = newMarkdownConverter()
	}
	return e, nil
}

// Extract returns the page title and the unnormalised content of the main
// region. It never fails: unparsable input yields "Untitled" and "".
func (e *Extractor) Extract(rawHTML, sourceURL string) (title, content string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return UntitledPage, ""
	}
	title = pageTitle(doc)

	if e.mode == ModeReadability {
		if article, ok := readableArticle(rawHTML, sourceURL); ok {
			if title == UntitledPage && strings.TrimSpace(article.Title) != "" {
				title = collapseSpaces(article.Title)
			}
			if adoc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); err == nil {
				return title, e.render(adoc.Selection, sourceURL)
			}
		}
	}

	doc.FindMatcher(e.noise).Remove()
	return title, e.render(e.mainRegion(doc), sourceURL)
}

// Normalize applies the whitespace rules of the configured format to
// content returned by Extract.
func (e *Extractor) Normalize(content string) string {
	if e.format == FormatMarkdown {
		return NormalizeMarkdown(content)
	}
	return NormalizeText(content)
}

// Links returns the absolute link targets of rawHTML. See ExtractLinks.
func (e *Extractor) Links(rawHTML, sourceURL string) []string {
	return ExtractLinks(rawHTML, sourceURL)
}

// mainRegion returns the first cascade match that has visible text, falling
// back to <body> and finally the whole document.
func (e *Extractor) mainRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range e.candidates {
		region := doc.FindMatcher(sel).First()
		if region.Length() > 0 && strings.TrimSpace(region.Text()) != "" {
			return region
		}
	}
	if body := doc.Find("body"); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

func (e *Extractor) render(region *goquery.Selection, sourceURL string) string {
	if e.format == FormatMarkdown {
		fragment, err := goquery.OuterHtml(region)
		if err == nil {
			md, err := toMarkdown(e.md, fragment, sourceURL)
			if err == nil {
				return md
			}
			slog.Warn("markdown conversion failed, using plain text", "url", sourceURL, "error", err)
		}
	}
	return nodesText(region.Nodes)
}

// pageTitle returns <title>, else the first heading, else UntitledPage.
func pageTitle(doc *goquery.Document) string {
	if t := collapseSpaces(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if h := collapseSpaces(doc.Find("h1, h2, h3, h4, h5, h6").First().Text()); h != "" {
		return h
	}
	return UntitledPage
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
