package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bbuilders/actionbot/internal/service"
)

// RunHandler triggers one pipeline run. The scheduler calls it on a fixed
// cadence; the response reports overall success plus a timestamp, while
// per-recipient outcomes live in the logs.
type RunHandler struct {
	pipeline *service.Pipeline
	logger   *zap.Logger
}

func NewRunHandler(pipeline *service.Pipeline, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Run handles POST /run.
func (h *RunHandler) Run(c *gin.Context) {
	h.logger.Info("Scheduled run started")

	summary, err := h.pipeline.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("Scheduled run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "run failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Email sending completed",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"summary":   summary,
	})
}
