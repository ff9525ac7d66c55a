package service

import (
	"context"
	"fmt"

	"reportflow/internal/model"
	"reportflow/internal/repository"
	"reportflow/internal/workflow"

	"github.com/google/uuid"
)

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) error
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	SeedDefaults(ctx context.Context) error
}

type roleService struct {
	repo repository.RoleRepository
}

func NewRoleService(repo repository.RoleRepository) RoleService {
	return &roleService{repo: repo}
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		res = append(res, toRoleResponse(role))
	}
	return res, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) error {
	rid, err := uuid.Parse(roleID)
	if err != nil {
		return fmt.Errorf("%w: invalid role id", workflow.ErrValidation)
	}

	permIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
	for _, raw := range req.PermissionIDs {
		pid, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return fmt.Errorf("%w: invalid permission id %q", workflow.ErrValidation, raw)
		}
		permIDs = append(permIDs, pid)
	}

	return s.repo.UpdatePermissions(ctx, rid, permIDs)
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	return s.repo.GetPermissionsByRoleName(ctx, roleName)
}

// defaultPermissions maps permission codes to display names, grouped per area.
var defaultPermissions = []model.Permission{
	{Code: "reports.read", Name: "View reports", Group: "reports"},
	{Code: "reports.create", Name: "Create reports", Group: "reports"},
	{Code: "reports.edit", Name: "Edit own draft reports", Group: "reports"},
	{Code: "reports.submit", Name: "Submit reports for review", Group: "reports"},
	{Code: "reports.approve", Name: "Approve or reject reports", Group: "reports"},
	{Code: "attachments.upload", Name: "Upload attachments", Group: "attachments"},
	{Code: "attachments.delete", Name: "Remove attachments", Group: "attachments"},
	{Code: "users.read", Name: "View users", Group: "users"},
	{Code: "users.manage", Name: "Create and update users", Group: "users"},
	{Code: "roles.manage", Name: "Manage roles and permissions", Group: "roles"},
	{Code: "audit.read", Name: "View audit logs", Group: "audit"},
	{Code: "statistics.read", Name: "View statistics", Group: "statistics"},
}

var defaultRoleGrants = map[string][]string{
	model.RoleStaff: {
		"reports.read", "reports.create", "reports.edit", "reports.submit",
		"attachments.upload", "attachments.delete",
	},
	model.RoleManager: {
		"reports.read", "reports.create", "reports.edit", "reports.submit",
		"reports.approve", "attachments.upload", "attachments.delete",
		"statistics.read",
	},
	model.RoleGM: {
		"reports.read", "reports.approve", "attachments.upload",
		"statistics.read", "audit.read",
	},
	model.RoleAdmin: {
		"reports.read", "reports.create", "reports.edit", "reports.submit",
		"reports.approve", "attachments.upload", "attachments.delete",
		"users.read", "users.manage", "roles.manage", "audit.read",
		"statistics.read",
	},
}

// SeedDefaults idempotently creates the built-in roles and their permission
// grants. Called once at startup.
func (s *roleService) SeedDefaults(ctx context.Context) error {
	byCode := make(map[string]uuid.UUID, len(defaultPermissions))
	for i := range defaultPermissions {
		perm := defaultPermissions[i]
		if err := s.repo.FindOrCreatePermission(ctx, &perm); err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", perm.Code, err)
		}
		byCode[perm.Code] = perm.ID
	}

	for name, codes := range defaultRoleGrants {
		role := model.Role{Name: name, IsSystem: true}
		if err := s.repo.FindOrCreateRole(ctx, &role); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}

		permIDs := make([]uuid.UUID, 0, len(codes))
		for _, code := range codes {
			permIDs = append(permIDs, byCode[code])
		}
		if err := s.repo.AssociatePermissions(ctx, role.ID, permIDs); err != nil {
			return fmt.Errorf("failed to grant permissions to %s: %w", name, err)
		}
	}

	return nil
}

func toRoleResponse(role model.Role) RoleResponse {
	resp := RoleResponse{
		ID:          role.ID.String(),
		Name:        role.Name,
		Description: role.Description,
		IsSystem:    role.IsSystem,
		Permissions: make([]PermissionResponse, 0, len(role.Permissions)),
	}
	for _, p := range role.Permissions {
		resp.Permissions = append(resp.Permissions, toPermissionResponse(p))
	}
	return resp
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
