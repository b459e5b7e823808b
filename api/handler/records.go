package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvester/models"
	"github.com/use-agent/harvester/store"
)

// ListRecords returns a handler for GET /api/v1/records?limit=&offset=.
func ListRecords(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit > 500 {
			limit = 500
		}

		recs, err := st.List(c.Request.Context(), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()},
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "records": recs})
	}
}

// GetRecord returns a handler for GET /api/v1/records/:id.
func GetRecord(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "record id must be a positive integer"},
			})
			return
		}

		rec, err := st.Get(c.Request.Context(), id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   &models.ErrorDetail{Code: models.ErrCodeNotFound, Message: "record not found"},
			})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()},
			})
		default:
			c.JSON(http.StatusOK, gin.H{"success": true, "record": rec})
		}
	}
}
