package repository

import (
	"context"

	"reportflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *model.ReportAttachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReportAttachment, error)
	ListByReport(ctx context.Context, reportID uuid.UUID, activeOnly bool) ([]model.ReportAttachment, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *model.ReportAttachment) error {
	return GetDB(ctx, r.db).Create(attachment).Error
}

func (r *attachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ReportAttachment, error) {
	var attachment model.ReportAttachment
	if err := GetDB(ctx, r.db).First(&attachment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListByReport(ctx context.Context, reportID uuid.UUID, activeOnly bool) ([]model.ReportAttachment, error) {
	var attachments []model.ReportAttachment
	query := GetDB(ctx, r.db).Preload("Uploader").Where("report_id = ?", reportID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("uploaded_at ASC").Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

// Deactivate soft-deletes: the row and the stored file stay for audit continuity.
func (r *attachmentRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.ReportAttachment{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
