package handler

import (
	"net/http"

	"reportflow/internal/middleware"
	"reportflow/internal/service"
	"reportflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/statistics")
	{
		stats.GET("", middleware.RequirePermission("statistics.read"), h.GetOverview)
	}
}

// GetOverview returns report counts, cost totals and turnaround figures
// @Summary      Statistics overview
// @Description  Report counts per status and department, completed cost total and average completion time. Managers are scoped to their own department.
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.StatisticsResponse}
// @Router       /statistics [get]
func (h *StatisticsHandler) GetOverview(c *gin.Context) {
	department := c.Query("department")
	if currentUserRole(c) == "manager" {
		department = currentUserDepartment(c)
	}

	stats, err := h.statisticsService.GetOverview(c.Request.Context(), department)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
