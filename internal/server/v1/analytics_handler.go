package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/care-assist/internal/analytics"
	"github.com/nulzo/care-assist/internal/store"
	"github.com/nulzo/care-assist/pkg/api"
)

type AnalyticsHandler struct {
	service analytics.Service
}

func NewAnalyticsHandler(service analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

// GetUsage handles GET /v1/stats?days=N.
func (h *AnalyticsHandler) GetUsage(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(analytics.DefaultDays)))
	if err != nil || days < 1 {
		_ = c.Error(api.BadRequestError("Invalid 'days' parameter"))
		return
	}
	days = analytics.ClampDays(days)

	stats, err := h.service.GetUsageOverview(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch analytics", err))
		return
	}

	c.JSON(http.StatusOK, api.StatsResponse{
		Days:        days,
		GeneratedAt: time.Now().UTC(),
		Data:        stats,
	})
}

// GetGeneration handles GET /v1/generations/:id.
func (h *AnalyticsHandler) GetGeneration(c *gin.Context) {
	log, err := h.service.GetGeneration(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = c.Error(api.NotFoundError("Generation not found"))
			return
		}
		_ = c.Error(api.InternalError("Failed to fetch generation", err))
		return
	}

	c.JSON(http.StatusOK, api.GenerationResponse{
		ID:        log.ID,
		Feature:   log.Feature,
		Provider:  log.ProviderID,
		Status:    log.Status,
		Attempts:  json.RawMessage(log.AttemptsJSON),
		LatencyMS: log.LatencyMS,
		CreatedAt: log.CreatedAt,
	})
}
