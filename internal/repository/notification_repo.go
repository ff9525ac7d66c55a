package repository

import (
	"context"

	"reportflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead scopes by recipient so users cannot acknowledge each other's rows.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}
