package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/use-agent/harvester/cleaner"
	"github.com/use-agent/harvester/models"
)

// Record is the caller-assembled harvest handed to persistence.
type Record struct {
	SeedURL   string               `json:"seed_url"`
	Content   string               `json:"content"`
	PageCount int                  `json:"page_count"`
	Size      string               `json:"size"`
	Bytes     int                  `json:"bytes"`
	Tokens    int                  `json:"tokens"`
	Pages     []models.ScrapedPage `json:"pages,omitempty"`
}

// FormatForStorage concatenates pages in collection order, each preceded by
// a header block with its title and URL. Zero pages yield
// models.NoContentSentinel.
func FormatForStorage(pages []models.ScrapedPage) string {
	if len(pages) == 0 {
		return models.NoContentSentinel
	}

	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== %s ===\nURL: %s\n\n%s", p.Title, p.URL, p.Content)
	}
	return strings.TrimSpace(b.String())
}

// BuildRecord formats pages and computes the record's size and token figures.
func BuildRecord(seedURL string, pages []models.ScrapedPage) *Record {
	content := FormatForStorage(pages)
	return &Record{
		SeedURL:   seedURL,
		Content:   content,
		PageCount: len(pages),
		Size:      FormatSize(len(content)),
		Bytes:     len(content),
		Tokens:    cleaner.EstimateTokens(content),
		Pages:     pages,
	}
}

// FormatSize renders n bytes as "512 B", "12.4 KB" or "3.1 MB".
func FormatSize(n int) string {
	const unit = 1024
	switch {
	case n < unit:
		return fmt.Sprintf("%d B", n)
	case n < unit*unit:
		return fmt.Sprintf("%.1f KB", float64(n)/unit)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(unit*unit))
	}
}

// Harvest crawls seedURL and assembles the record. It returns
// models.ErrNoContent when no collected page has any content. On
// cancellation the record of the partial crawl is returned with the error.
func (c *Crawler) Harvest(ctx context.Context, seedURL string, opts models.CrawlOptions) (*Record, error) {
	pages, err := c.Crawl(ctx, seedURL, opts)
	if len(pages) == 0 {
		if err == nil {
			err = models.ErrNoContent
		}
		return nil, err
	}

	seed := seedURL
	if u, nerr := normalizeSeed(seedURL); nerr == nil {
		seed = u.String()
	}
	rec := BuildRecord(seed, pages)
	if err != nil {
		return rec, err
	}

	for _, p := range pages {
		if strings.TrimSpace(p.Content) != "" {
			return rec, nil
		}
	}
	return nil, models.ErrNoContent
}
