package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvester/models"
	"github.com/use-agent/harvester/store"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when the configured record store does not answer a ping.
func Health(st *store.Store, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, storeStatus := "healthy", "disabled"
		if st != nil {
			storeStatus = "ok"
			if err := st.Ping(c.Request.Context()); err != nil {
				status, storeStatus = "degraded", "unavailable"
			}
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Store:   storeStatus,
			Version: Version,
		})
	}
}
