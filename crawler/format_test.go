package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/harvester/models"
)

func TestFormatForStorage_Empty(t *testing.T) {
	assert.Equal(t, "No content scraped", FormatForStorage(nil))
	assert.Equal(t, models.NoContentSentinel, FormatForStorage([]models.ScrapedPage{}))
}

func TestFormatForStorage_OrderAndHeaders(t *testing.T) {
	pages := []models.ScrapedPage{
		{URL: "https://example.com/", Title: "Home", Content: "welcome"},
		{URL: "https://example.com/about", Title: "About", Content: "about us\n\n"},
	}

	out := FormatForStorage(pages)

	assert.Equal(t, "=== Home ===\nURL: https://example.com/\n\nwelcome\n\n"+
		"=== About ===\nURL: https://example.com/about\n\nabout us", out)

	home := strings.Index(out, "Home")
	about := strings.Index(out, "About")
	assert.Less(t, home, about)
	assert.Less(t, strings.Index(out, "https://example.com/"), strings.Index(out, "https://example.com/about"))
	assert.Equal(t, strings.TrimSpace(out), out)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{12697, "12.4 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.n))
	}
}

func TestBuildRecord(t *testing.T) {
	pages := []models.ScrapedPage{{URL: "https://example.com/", Title: "Home", Content: "hello world"}}

	rec := BuildRecord("https://example.com/", pages)

	assert.Equal(t, "https://example.com/", rec.SeedURL)
	assert.Equal(t, 1, rec.PageCount)
	assert.Equal(t, FormatForStorage(pages), rec.Content)
	assert.Equal(t, len(rec.Content), rec.Bytes)
	assert.Equal(t, FormatSize(rec.Bytes), rec.Size)
	assert.Equal(t, pages, rec.Pages)
}
