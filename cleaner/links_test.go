package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinks(t *testing.T) {
	html := `<html><body>
		<a href="/docs/intro">Intro</a>
		<a href="guide#install">Guide</a>
		<a href="guide#usage">Guide again</a>
		<a href="#top">Top</a>
		<a href="">empty</a>
		<a href="https://other.example/x">Other</a>
		<a href="mailto:a@b.com">Mail</a>
		<a href="/docs/">Self</a>
		<a href="http://[::1">broken</a>
	</body></html>`

	links := ExtractLinks(html, "https://example.com/docs/")

	assert.Equal(t, []string{
		"https://example.com/docs/intro",
		"https://example.com/docs/guide",
		"https://other.example/x",
		"mailto:a@b.com",
	}, links)
}

func TestExtractLinks_BaseHref(t *testing.T) {
	html := `<html><head><base href="https://cdn.example.com/root/"></head>
		<body><a href="page">Page</a></body></html>`

	links := ExtractLinks(html, "https://example.com/docs/")
	assert.Equal(t, []string{"https://cdn.example.com/root/page"}, links)
}

func TestExtractLinks_InvalidSource(t *testing.T) {
	assert.Nil(t, ExtractLinks(`<a href="/x">x</a>`, "://bad"))
}
