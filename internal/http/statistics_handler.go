package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/service"
)

type StatisticsHandler struct {
	logger *zap.Logger
	stats  *service.StatisticsService
}

func NewStatisticsHandler(logger *zap.Logger, stats *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{logger: logger, stats: stats}
}

// Dashboard maneja GET /statistics/dashboard.
func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	dashboard, err := h.stats.Dashboard(c.Request.Context(), member)
	if err != nil {
		respondError(c, h.logger, "dashboard", err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// PhasePerformance maneja GET /statistics/phases.
func (h *StatisticsHandler) PhasePerformance(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	phases, err := h.stats.PhasePerformance(c.Request.Context(), member)
	if err != nil {
		respondError(c, h.logger, "phase performance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phases": phases})
}

// ScoreTrend maneja GET /statistics/trends?period=weekly|monthly.
func (h *StatisticsHandler) ScoreTrend(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	period, err := service.ParseTrendPeriod(c.Query("period"))
	if err != nil {
		respondError(c, h.logger, "score trend", err)
		return
	}
	points, err := h.stats.ScoreTrend(c.Request.Context(), member, period)
	if err != nil {
		respondError(c, h.logger, "score trend", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "points": points})
}

// RecentInterviews maneja GET /statistics/recent?limit=N.
func (h *StatisticsHandler) RecentInterviews(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, h.logger, "recent interviews", fmt.Errorf("limit %q: %w", raw, domain.ErrValidationFailed))
			return
		}
		limit = n
	}
	recent, err := h.stats.Recent(c.Request.Context(), member, limit)
	if err != nil {
		respondError(c, h.logger, "recent interviews", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": recent})
}
