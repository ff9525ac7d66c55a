package handler

import (
	"io"
	"net/http"

	"reportflow/internal/middleware"
	"reportflow/internal/service"
	"reportflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	attachmentService service.AttachmentService
}

func NewAttachmentHandler(attachmentService service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

func (h *AttachmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports/:id/attachments")
	{
		reports.GET("", middleware.RequirePermission("reports.read"), h.ListAttachments)
		reports.POST("", middleware.RequirePermission("attachments.upload"), h.UploadAttachment)
	}

	attachments := router.Group("/attachments")
	{
		attachments.GET("/:id/download", middleware.RequirePermission("reports.read"), h.DownloadAttachment)
		attachments.DELETE("/:id", middleware.RequirePermission("attachments.delete"), h.DeactivateAttachment)
	}
}

// UploadAttachment attaches a file to a report
// @Summary      Upload attachment
// @Description  Uploads a file for a report. The file is filed under the report's current approval stage.
// @Tags         attachments
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Report ID"
// @Param        file  formData  file    true  "File to upload"
// @Success      201   {object}  response.Response{data=service.AttachmentResponse}
// @Failure      400   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /reports/{id}/attachments [post]
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file in form data"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to open uploaded file"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to read uploaded file"))
		return
	}

	attachment, err := h.attachmentService.Upload(c.Request.Context(), c.Param("id"), currentUserID(c), fileHeader.Filename, content)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, attachment))
}

// ListAttachments returns a report's attachments
// @Summary      List attachments
// @Tags         attachments
// @Produce      json
// @Security     BearerAuth
// @Param        id                path      string  true   "Report ID"
// @Param        include_inactive  query     bool    false  "Include deactivated attachments"
// @Success      200  {object}  response.Response{data=[]service.AttachmentResponse}
// @Router       /reports/{id}/attachments [get]
func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	attachments, err := h.attachmentService.ListByReport(c.Request.Context(), c.Param("id"), includeInactive)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, attachments))
}

// DownloadAttachment streams the attachment binary
// @Summary      Download attachment
// @Tags         attachments
// @Produce      application/octet-stream
// @Security     BearerAuth
// @Param        id   path  string  true  "Attachment ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  response.Response
// @Router       /attachments/{id}/download [get]
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	download, err := h.attachmentService.Download(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+download.FileName+`"`)
	c.Data(http.StatusOK, "application/octet-stream", download.Content)
}

// DeactivateAttachment soft-deletes an attachment
// @Summary      Remove attachment
// @Description  Deactivates the attachment. The row and file survive for audit continuity.
// @Tags         attachments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Attachment ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /attachments/{id} [delete]
func (h *AttachmentHandler) DeactivateAttachment(c *gin.Context) {
	if err := h.attachmentService.Deactivate(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deactivated": true}))
}
