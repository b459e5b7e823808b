package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvester/config"
	"github.com/use-agent/harvester/crawler"
	"github.com/use-agent/harvester/models"
	"github.com/use-agent/harvester/store"
	"github.com/use-agent/harvester/webhook"
)

// PostCrawl returns a handler for POST /api/v1/crawl.
//
// The crawl runs synchronously within cfg.MaxTimeout. On success the record
// is optionally persisted (st may be nil) and a webhook fired when the
// request names one.
func PostCrawl(cr *crawler.Crawler, st *store.Store, notifier *webhook.Notifier, cfg config.CrawlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.CrawlRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.CrawlResponse{
				Success: false,
				Error:   &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()},
			})
			return
		}
		if cfg.PageLimit > 0 && req.MaxPages > cfg.PageLimit {
			c.JSON(http.StatusBadRequest, models.CrawlResponse{
				Success: false,
				SeedURL: req.URL,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: fmt.Sprintf("max_pages must not exceed %d", cfg.PageLimit),
				},
			})
			return
		}

		ctx := c.Request.Context()
		if cfg.MaxTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.MaxTimeout)
			defer cancel()
		}

		rec, err := cr.Harvest(ctx, req.URL, req.Options(cfg.DefaultMaxDepth, cfg.DefaultMaxPages))
		if err != nil {
			if notifier != nil && req.WebhookURL != "" {
				notifier.DeliverAsync(req.WebhookURL, req.WebhookSecret, webhook.NewEvent(
					webhook.EventCrawlFailed, req.URL, models.NewHarvestError(models.CodeOf(err), err.Error(), nil).ToDetail(),
				))
			}
			respondError(c, req.URL, err, start)
			return
		}

		resp := models.CrawlResponse{
			Success:   true,
			SeedURL:   rec.SeedURL,
			PageCount: rec.PageCount,
			Size:      rec.Size,
			Tokens:    rec.Tokens,
			Content:   rec.Content,
		}
		if req.IncludePages {
			resp.Pages = rec.Pages
		}

		if req.Store {
			if st == nil {
				slog.Warn("crawl: store requested but persistence is disabled", "url", rec.SeedURL)
			} else if id, err := st.Save(ctx, rec); err != nil {
				slog.Error("crawl: failed to save record", "url", rec.SeedURL, "error", err)
			} else {
				resp.RecordID = id
			}
		}

		if notifier != nil && req.WebhookURL != "" {
			ev := webhook.NewEvent(webhook.EventCrawlCompleted, rec.SeedURL, gin.H{
				"page_count": rec.PageCount,
				"size":       rec.Size,
				"tokens":     rec.Tokens,
			})
			ev.RecordID = resp.RecordID
			notifier.DeliverAsync(req.WebhookURL, req.WebhookSecret, ev)
		}

		resp.Timing = models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
		slog.Info("crawl: completed",
			"url", rec.SeedURL,
			"pages", rec.PageCount,
			"size", rec.Size,
			"total_ms", resp.Timing.TotalMs,
		)
		c.JSON(http.StatusOK, resp)
	}
}
