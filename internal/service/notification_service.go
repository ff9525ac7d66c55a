package service

import (
	"context"
	"fmt"
	"time"

	"reportflow/internal/model"
	"reportflow/internal/repository"
	"reportflow/internal/workflow"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	ReportID  string `json:"report_id,omitempty"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type NotificationService interface {
	ListForUser(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid user id", workflow.ErrValidation)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	notifications, total, err := s.repo.ListByRecipient(ctx, uid, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		res = append(res, toNotificationResponse(n))
	}
	return res, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	nid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid notification id", workflow.ErrValidation)
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", workflow.ErrValidation)
	}
	return s.repo.MarkRead(ctx, nid, uid)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", workflow.ErrValidation)
	}
	return s.repo.MarkAllRead(ctx, uid)
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		EventType: n.EventType,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.ReportID != nil {
		resp.ReportID = n.ReportID.String()
	}
	return resp
}
