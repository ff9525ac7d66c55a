package repository

import (
	"context"

	"reportflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	Action   string
	ReportID *uuid.UUID
	Page     int
	Limit    int
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.ReportID != nil {
			q = q.Where("report_id = ?", *filter.ReportID)
		}
		return q
	}

	if err := apply(db.Model(&model.AuditLog{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("User")).
		Order("created_at desc").
		Offset(offset).
		Limit(filter.Limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
