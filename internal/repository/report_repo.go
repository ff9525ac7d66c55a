package repository

import (
	"context"

	"reportflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportFilter narrows report listings.
type ReportFilter struct {
	Status     string
	Department string
	CreatorID  *uuid.UUID
	Page       int
	Limit      int
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]model.Report, int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	return GetDB(ctx, r.db).Create(report).Error
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := GetDB(ctx, r.db).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := GetDB(ctx, r.db).Preload("Creator").First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Department != "" {
			q = q.Where("department = ?", filter.Department)
		}
		if filter.CreatorID != nil {
			q = q.Where("creator_id = ?", *filter.CreatorID)
		}
		return q
	}

	if err := apply(db.Model(&model.Report{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("Creator")).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}
