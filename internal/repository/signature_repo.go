package repository

import (
	"context"

	"reportflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SignatureRepository reads the append-only proof-of-approval records.
// Signatures are written only by the workflow engine, inside the approval
// transaction; nothing else may create, mutate or delete them.
type SignatureRepository interface {
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]model.ReportSignature, error)
}

type signatureRepository struct {
	db *gorm.DB
}

func NewSignatureRepository(db *gorm.DB) SignatureRepository {
	return &signatureRepository{db: db}
}

func (r *signatureRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]model.ReportSignature, error) {
	var signatures []model.ReportSignature
	if err := GetDB(ctx, r.db).
		Preload("User").
		Where("report_id = ?", reportID).
		Order("signed_at ASC").
		Find(&signatures).Error; err != nil {
		return nil, err
	}
	return signatures, nil
}
