package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvester/models"
)

func TestIsEligible_SeedHostOnly(t *testing.T) {
	o := models.DefaultCrawlOptions()
	host := "seed-domain.example"

	assert.False(t, IsEligible("mailto:a@b.com", host, o))
	assert.False(t, IsEligible("#section", host, o))
	assert.False(t, IsEligible("https://other-domain.example/x", host, o))
	assert.True(t, IsEligible("https://seed-domain.example/page2", host, o))
}

func TestIsEligible(t *testing.T) {
	const host = "seed-domain.example"

	tests := []struct {
		name      string
		candidate string
		allowed   []string
		exclude   []string
		want      bool
	}{
		{"same host", "https://seed-domain.example/docs", nil, nil, true},
		{"plain http", "http://seed-domain.example/docs", nil, nil, true},
		{"host is case-insensitive", "https://Seed-Domain.EXAMPLE/docs", nil, nil, true},
		{"explicit port", "https://seed-domain.example:8443/docs", nil, nil, true},
		{"subdomain needs allow-list", "https://docs.seed-domain.example/", nil, nil, false},
		{"relative", "/docs", nil, nil, false},
		{"not a url", "http://[::1", nil, nil, false},
		{"ftp", "ftp://seed-domain.example/file", nil, nil, false},
		{"tel", "tel:+123", nil, nil, false},
		{"javascript", "javascript:void(0)", nil, nil, false},
		{"image", "https://seed-domain.example/logo.PNG", nil, nil, false},
		{"pdf with query", "https://seed-domain.example/a.pdf?dl=1", nil, nil, false},
		{"archive", "https://seed-domain.example/release.tar.gz", nil, nil, false},
		{"extension-like path segment", "https://seed-domain.example/pdf/guide", nil, nil, true},

		{"allow-list exact", "https://partner.example/x", []string{"partner.example"}, nil, true},
		{"allow-list subdomain", "https://a.b.partner.example/x", []string{"partner.example"}, nil, true},
		{"allow-list wildcard form", "https://a.partner.example/x", []string{"*.partner.example"}, nil, true},
		{"allow-list suffix trap", "https://evilpartner.example/x", []string{"partner.example"}, nil, false},
		{"allow-list replaces seed host", "https://seed-domain.example/x", []string{"partner.example"}, nil, false},

		{"custom exclude", "https://seed-domain.example/blog/1", nil, []string{`/blog/`}, false},
		{"custom exclude replaces defaults", "https://seed-domain.example/a.pdf", nil, []string{`/blog/`}, true},
		{"empty exclude list disables defaults", "https://seed-domain.example/a.zip", nil, []string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := models.CrawlOptions{AllowedDomains: tt.allowed, ExcludePatterns: tt.exclude}
			assert.Equal(t, tt.want, IsEligible(tt.candidate, host, o))
		})
	}
}

func TestIsEligible_InvalidPatternRejectsAll(t *testing.T) {
	o := models.CrawlOptions{ExcludePatterns: []string{"["}}
	assert.False(t, IsEligible("https://seed-domain.example/", "seed-domain.example", o))

	_, err := NewLinkFilter("seed-domain.example", o)
	require.Error(t, err)
}

func TestNormalizeSeed(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://example.com/docs", "https://example.com/docs", false},
		{"  example.com  ", "https://example.com/", false},
		{"http://example.com/a#frag", "http://example.com/a", false},
		{"HTTPS://Example.COM", "https://example.com/", false},
		{"https://example.com?q=1", "https://example.com/?q=1", false},
		{"", "", true},
		{"ftp://example.com/", "", true},
		{"https:///path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := normalizeSeed(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	base, err := url.Parse("https://seed-domain.example/docs/intro")
	require.NoError(t, err)

	tests := []struct {
		ref  string
		want string
	}{
		{"", "https://seed-domain.example/docs/intro"},
		{"#top", "https://seed-domain.example/docs/intro"},
		{"guide", "https://seed-domain.example/docs/guide"},
		{"https://seed-domain.example", "https://seed-domain.example/"},
		{"https://SEED-Domain.example/", "https://seed-domain.example/"},
		{"HTTP://seed-domain.example/Case/Path", "http://seed-domain.example/Case/Path"},
		{"//other.example", "https://other.example/"},
		{"  /a?x=1#frag  ", "https://seed-domain.example/a?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := canonicalURL(base, tt.ref)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := canonicalURL(base, "http://[::1")
	assert.False(t, ok)
}
