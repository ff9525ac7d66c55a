package model

import (
	"time"

	"github.com/google/uuid"
)

// Approval stages an attachment can be filed under. The stage is derived
// from the report's status at upload time.
const (
	StageInitial       = "INITIAL"
	StageManagerReview = "MANAGER_REVIEW"
	StageGMReview      = "GM_REVIEW"
)

// StageForStatus maps the report's current status to the stage new uploads
// are filed under.
func StageForStatus(s ReportStatus) string {
	switch s {
	case StatusManagerReview:
		return StageManagerReview
	case StatusManagerApproved, StatusGMReview:
		return StageGMReview
	}
	return StageInitial
}

// ReportAttachment is file metadata; the binary lives in the attachment
// store. Rows are soft-deleted via IsActive so the audit trail keeps its
// references.
type ReportAttachment struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID      uuid.UUID `gorm:"type:uuid;not null;index" json:"report_id"`
	FileName      string    `gorm:"type:varchar(255);not null" json:"file_name"`
	StoredPath    string    `gorm:"type:varchar(512);not null" json:"-"`
	SizeBytes     int64     `gorm:"not null" json:"size_bytes"`
	ApprovalStage string    `gorm:"type:varchar(30);not null" json:"approval_stage"`
	UploadedBy    uuid.UUID `gorm:"type:uuid;not null" json:"uploaded_by"`
	Uploader      *User     `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	UploadedAt    time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
