package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvester/models"
)

// respondError maps a HarvestError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, seedURL string, err error, start time.Time) {
	var he *models.HarvestError
	if !errors.As(err, &he) {
		he = models.NewHarvestError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(he), models.CrawlResponse{
		Success: false,
		SeedURL: seedURL,
		Error:   he.ToDetail(),
		Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.HarvestError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeCanceled:
		return http.StatusRequestTimeout // 408
	case models.ErrCodeNoContent, models.ErrCodeUnsupportedContent, models.ErrCodeRobotsDisallowed:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeFetchFailed, models.ErrCodeHTTPStatus, models.ErrCodeBotBlocked:
		return http.StatusBadGateway // 502
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}
