package handler

import (
	"net/http"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/model"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/service"
	"github.com/gin-gonic/gin"
)

type IngestHandler struct {
	sales *service.SalesIngestor
	ads   *service.AdsIngestor
}

func NewIngestHandler(sales *service.SalesIngestor, ads *service.AdsIngestor) *IngestHandler {
	return &IngestHandler{sales: sales, ads: ads}
}

// IngestSales handles POST|GET /api/cron/ingest-sales.
func (h *IngestHandler) IngestSales(c *gin.Context) {
	var req model.SalesTriggerRequest
	if !bindTrigger(c, &req) {
		return
	}

	summary, err := h.sales.Run(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// IngestAds handles POST|GET /api/cron/ingest-ads.
func (h *IngestHandler) IngestAds(c *gin.Context) {
	var req model.AdsTriggerRequest
	if !bindTrigger(c, &req) {
		return
	}

	summary, err := h.ads.Run(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// bindTrigger accepts parameters from the query string (GET crons) or a JSON
// body (POST crons); body fields win when both are present.
func bindTrigger(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.Error(apperrors.NewValidation("invalid query parameters: " + err.Error()))
		return false
	}
	if c.Request.Method == http.MethodPost && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			c.Error(apperrors.NewValidation("invalid request body: " + err.Error()))
			return false
		}
	}
	return true
}
