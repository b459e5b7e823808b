package crawler

import (
	"fmt"
	"log/slog"

	"github.com/temoto/robotstxt"

	"github.com/use-agent/harvester/cache"
	"github.com/use-agent/harvester/cleaner"
	"github.com/use-agent/harvester/config"
	"github.com/use-agent/harvester/engine"
	"github.com/use-agent/harvester/robots"
)

// NewFromConfig builds the HTTP engine, extractor and optional robots agent
// described by cfg and returns a Crawler wired to them.
func NewFromConfig(cfg config.CrawlerConfig, rc config.RobotsConfig, log *slog.Logger) (*Crawler, error) {
	if log == nil {
		log = slog.Default()
	}

	fetcher, err := engine.NewHTTPEngine(engine.Options{
		UserAgent:    cfg.UserAgent,
		Proxy:        cfg.Proxy,
		Timeout:      cfg.RequestTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("crawler: %w", err)
	}

	ext, err := cleaner.NewExtractor(cleaner.Options{Mode: cfg.ExtractMode, Format: cfg.Format})
	if err != nil {
		return nil, fmt.Errorf("crawler: %w", err)
	}

	opts := []Option{
		WithDelay(cfg.Delay),
		WithRequestTimeout(cfg.RequestTimeout),
		WithConcurrency(cfg.Concurrency),
		WithNearDuplicateDistance(cfg.NearDuplicateDistance),
		WithLogger(log),
	}
	if rc.Respect {
		rules := cache.New[string, *robotstxt.RobotsData](rc.CacheEntries, rc.CacheTTL)
		opts = append(opts, WithRobots(robots.NewAgent(fetcher, rc.UserAgent, rules)))
		log.Info("robots.txt enforcement enabled", "agent", rc.UserAgent)
	}
	return New(fetcher, ext, opts...), nil
}
