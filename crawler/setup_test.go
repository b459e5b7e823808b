package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvester/config"
)

func TestNewFromConfig(t *testing.T) {
	cfg := config.Load()

	cr, err := NewFromConfig(cfg.Crawler, config.RobotsConfig{Respect: true, UserAgent: "harvester"}, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, cr.robots)
	assert.Equal(t, cfg.Crawler.Delay, cr.delay)

	cr, err = NewFromConfig(cfg.Crawler, config.RobotsConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, cr.robots)
}

func TestNewFromConfig_Invalid(t *testing.T) {
	cfg := config.Load().Crawler
	cfg.Proxy = "socks5://127.0.0.1:1080"
	_, err := NewFromConfig(cfg, config.RobotsConfig{}, discardLogger())
	assert.Error(t, err)

	cfg = config.Load().Crawler
	cfg.Format = "pdf"
	_, err = NewFromConfig(cfg, config.RobotsConfig{}, discardLogger())
	assert.Error(t, err)
}
