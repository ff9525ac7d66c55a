package service

import (
	"context"
	"fmt"
	"time"

	"reportflow/internal/repository"
	"reportflow/internal/workflow"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	ReportID  string `json:"report_id,omitempty"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

type AuditListFilter struct {
	Action   string
	ReportID string
	Page     int
	Limit    int
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, filter AuditListFilter) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs retrieves strictly paginated records with Users pre-loaded
func (s *auditService) GetAuditLogs(ctx context.Context, filter AuditListFilter) ([]AuditLogResponse, int64, error) {
	repoFilter := repository.AuditFilter{
		Action: filter.Action,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.ReportID != "" {
		rid, err := uuid.Parse(filter.ReportID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: invalid report id", workflow.ErrValidation)
		}
		repoFilter.ReportID = &rid
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}

	logs, total, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		entry := AuditLogResponse{
			ID:        l.ID.String(),
			UserID:    userID,
			Username:  username,
			Action:    l.Action,
			Details:   l.Details,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		}
		if l.ReportID != nil {
			entry.ReportID = l.ReportID.String()
		}
		res = append(res, entry)
	}

	return res, total, nil
}
