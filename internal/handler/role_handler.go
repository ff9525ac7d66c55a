package handler

import (
	"net/http"

	"reportflow/internal/middleware"
	"reportflow/internal/service"
	"reportflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
}

func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles")
	{
		roles.GET("", middleware.RequirePermission("roles.manage"), h.ListRoles)
		roles.GET("/permissions", middleware.RequirePermission("roles.manage"), h.ListPermissions)
		roles.PUT("/:id/permissions", middleware.RequirePermission("roles.manage"), h.UpdateRolePermissions)
	}
}

// ListRoles returns all roles with their permissions
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// ListPermissions returns the full permission catalog
// @Summary      List permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /roles/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// UpdateRolePermissions replaces a role's permission set
// @Summary      Update role permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Role ID"
// @Param        payload  body      service.UpdateRolePermissionsRequest  true  "Permission IDs"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /roles/{id}/permissions [put]
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
	var req service.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.roleService.UpdateRolePermissions(c.Request.Context(), c.Param("id"), req); err != nil {
		writeError(c, err)
		return
	}

	// Grants changed, invalidate the middleware cache.
	middleware.ClearPermissionCache("")

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Permissions updated"))
}
