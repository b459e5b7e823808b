package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvester/api/handler"
	"github.com/use-agent/harvester/api/middleware"
	"github.com/use-agent/harvester/config"
	"github.com/use-agent/harvester/crawler"
	"github.com/use-agent/harvester/store"
	"github.com/use-agent/harvester/webhook"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
// st and notifier may be nil; the record routes are only mounted with a store.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// The health endpoint sits outside auth.
func NewRouter(cr *crawler.Crawler, st *store.Store, notifier *webhook.Notifier, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Server.Mode != gin.TestMode {
		r.Use(gin.Logger())
	}

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(st, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		if len(cfg.Auth.APIKeys) == 0 {
			slog.Warn("auth enabled but no API keys configured, API is open")
		}
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/crawl", handler.PostCrawl(cr, st, notifier, cfg.Crawler))

	if st != nil {
		protected.GET("/records", handler.ListRecords(st))
		protected.GET("/records/:id", handler.GetRecord(st))
	}

	return r
}
