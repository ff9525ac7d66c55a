package handler

import (
	"net/http"

	"reportflow/internal/middleware"
	"reportflow/internal/service"
	"reportflow/pkg/pagination"
	"reportflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	notifications.Use(middleware.RequireRole("admin", "gm", "manager", "staff"))
	{
		notifications.GET("", h.ListNotifications)
		notifications.PUT("/:id/read", h.MarkRead)
		notifications.PUT("/read-all", h.MarkAllRead)
	}
}

// ListNotifications returns the caller's in-app notifications
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query     bool  false  "Only unread notifications"
// @Param        page    query     int   false  "Page number"
// @Param        limit   query     int   false  "Page size"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	p := pagination.Parse(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.ListForUser(c.Request.Context(), currentUserID(c), unreadOnly, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: notifications,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}

// MarkRead marks one of the caller's notifications as read
// @Summary      Mark notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Router       /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Marked as read"))
}

// MarkAllRead marks all of the caller's notifications as read
// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notificationService.MarkAllRead(c.Request.Context(), currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "All marked as read"))
}
