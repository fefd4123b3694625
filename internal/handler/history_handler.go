package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bbuilders/actionbot/internal/repository"
	"github.com/bbuilders/actionbot/internal/service"
)

// HistoryHandler exposes the sent-email history to operators.
type HistoryHandler struct {
	repo *repository.SentEmailRepository
	loc  *time.Location
}

func NewHistoryHandler(repo *repository.SentEmailRepository, loc *time.Location) *HistoryHandler {
	return &HistoryHandler{
		repo: repo,
		loc:  loc,
	}
}

// List handles GET /history?day=YYYY-MM-DD. The day is interpreted in the
// reference timezone, matching the dedup boundary. Defaults to today.
func (h *HistoryHandler) List(c *gin.Context) {
	day := c.Query("day")
	if day == "" {
		day = time.Now().In(h.loc).Format(service.DayLayout)
	}

	from, err := time.ParseInLocation(service.DayLayout, day, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day, expected YYYY-MM-DD"})
		return
	}
	to := from.AddDate(0, 0, 1)

	records, err := h.repo.ListByRunWindow(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"day":     day,
		"count":   len(records),
		"records": records,
	})
}
