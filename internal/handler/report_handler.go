package handler

import (
	"net/http"

	"reportflow/internal/middleware"
	"reportflow/internal/service"
	"reportflow/pkg/pagination"
	"reportflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.GET("", middleware.RequirePermission("reports.read"), h.ListReports)
		reports.GET("/:id", middleware.RequirePermission("reports.read"), h.GetReport)
		reports.POST("", middleware.RequirePermission("reports.create"), h.CreateReport)
		reports.PUT("/:id", middleware.RequirePermission("reports.edit"), h.UpdateReport)
		reports.POST("/:id/submit", middleware.RequirePermission("reports.submit"), h.SubmitReport)
		reports.POST("/:id/approve", middleware.RequirePermission("reports.approve"), h.ApproveReport)
		reports.POST("/:id/reject", middleware.RequirePermission("reports.approve"), h.RejectReport)
	}
}

// CreateReport creates a new draft report
// @Summary      Create report
// @Description  Creates a new report in DRAFT status owned by the caller
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateReportRequest  true  "Report Payload"
// @Success      201      {object}  response.Response{data=service.ReportResponse}
// @Failure      400      {object}  response.Response
// @Router       /reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req service.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.CreateReport(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, report))
}

// ListReports returns reports filtered by status, department or creator
// @Summary      List reports
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        status      query     string  false  "Filter by status"
// @Param        department  query     string  false  "Filter by department"
// @Param        mine        query     bool    false  "Only the caller's reports"
// @Param        page        query     int     false  "Page number"
// @Param        limit       query     int     false  "Page size"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.ReportListFilter{
		Status:     c.Query("status"),
		Department: c.Query("department"),
		Page:       p.Page,
		Limit:      p.Limit,
	}
	if c.Query("mine") == "true" {
		filter.CreatorID = currentUserID(c)
	}

	// Staff only ever see their own reports; managers see their department.
	switch currentUserRole(c) {
	case "staff":
		filter.CreatorID = currentUserID(c)
	case "manager":
		filter.Department = currentUserDepartment(c)
	}

	reports, total, err := h.reportService.ListReports(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: reports,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}

// GetReport returns a single report with signatures and attachments
// @Summary      Get report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=service.ReportDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// UpdateReport edits a draft report's content
// @Summary      Update report
// @Description  Edits title, content or cost. Only the creator, only in DRAFT.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Report ID"
// @Param        payload  body      service.UpdateReportRequest  true  "Fields to update"
// @Success      200      {object}  response.Response{data=service.ReportResponse}
// @Failure      409      {object}  response.Response
// @Router       /reports/{id} [put]
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	var req service.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.UpdateReport(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// SubmitReport sends a draft into the approval chain
// @Summary      Submit report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=service.ReportResponse}
// @Failure      409  {object}  response.Response
// @Router       /reports/{id}/submit [post]
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	report, err := h.reportService.SubmitReport(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ApproveReport records the caller's approval for their tier
// @Summary      Approve report
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Report ID"
// @Param        payload  body      service.ApproveReportRequest  false  "Optional comments"
// @Success      200      {object}  response.Response{data=service.ReportResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /reports/{id}/approve [post]
func (h *ReportHandler) ApproveReport(c *gin.Context) {
	var req service.ApproveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Comments = ""
	}

	report, err := h.reportService.ApproveReport(c.Request.Context(), c.Param("id"), currentUserID(c), req.Comments)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// RejectReport rejects the report at the caller's tier
// @Summary      Reject report
// @Description  Rejects the report with a mandatory reason
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Report ID"
// @Param        payload  body      service.RejectReportRequest  true  "Rejection reason"
// @Success      200      {object}  response.Response{data=service.ReportResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /reports/{id}/reject [post]
func (h *ReportHandler) RejectReport(c *gin.Context) {
	var req service.RejectReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.RejectReport(c.Request.Context(), c.Param("id"), currentUserID(c), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
