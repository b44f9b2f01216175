package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Adda-Baaj/durjog-khobor/internal/ingest"
	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

type handlers struct {
	svc Service
	log logger.Logger
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": ingest.StatusOK,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// articles lists records published within the retention window.
func (h *handlers) articles(c *gin.Context) {
	list, err := h.svc.Articles(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": ingest.StatusFailed, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// scrapeNow runs one pass synchronously. The pass is detached from the
// request so a client disconnect does not abort it. A store failure is
// reported in the body rather than through the status code.
func (h *handlers) scrapeNow(c *gin.Context) {
	report, err := h.svc.RunPass(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusOK, gin.H{
			"status": ingest.StatusFailed,
			"stored": report.Stored(),
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   ingest.StatusOK,
		"stored":   report.Stored(),
		"new":      report.Inserted(),
		"deleted":  report.StorePruned,
		"total":    report.Total,
		"duration": report.Duration.String(),
	})
}

// clear deletes every stored record and empties the freshness cache.
func (h *handlers) clear(c *gin.Context) {
	deleted, err := h.svc.Clear(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": ingest.StatusFailed, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": ingest.StatusOK, "deleted": deleted})
}
