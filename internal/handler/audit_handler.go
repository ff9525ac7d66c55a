package handler

import (
	"net/http"

	"reportflow/internal/middleware"
	"reportflow/internal/service"
	"reportflow/pkg/pagination"
	"reportflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/audit-logs")
	{
		audit.GET("", middleware.RequirePermission("audit.read"), h.ListAuditLogs)
	}
}

// ListAuditLogs returns paginated audit entries
// @Summary      List audit logs
// @Description  Returns audit entries, optionally filtered by action or report
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        action     query     string  false  "Filter by action"
// @Param        report_id  query     string  false  "Filter by report ID"
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Page size"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), service.AuditListFilter{
		Action:   c.Query("action"),
		ReportID: c.Query("report_id"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: logs,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}
