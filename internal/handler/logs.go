package handler

import (
	"net/http"
	"strconv"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/service"
	"github.com/gin-gonic/gin"
)

type LogsHandler struct {
	logs *service.RunLogger
}

func NewLogsHandler(logs *service.RunLogger) *LogsHandler {
	return &LogsHandler{logs: logs}
}

// List returns the most recent ingestion log entries, newest first.
func (h *LogsHandler) List(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.Error(apperrors.NewValidation("limit must be an integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.logs.Recent(c.Request.Context(), limit)
	if err != nil {
		c.Error(apperrors.New(apperrors.ErrPersistence, "failed to read ingestion logs", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries, "count": len(entries)})
}
