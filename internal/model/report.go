package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportStatus is the lifecycle state of a report.
type ReportStatus string

const (
	StatusDraft           ReportStatus = "DRAFT"
	StatusSubmitted       ReportStatus = "SUBMITTED"
	StatusManagerReview   ReportStatus = "MANAGER_REVIEW"
	StatusManagerApproved ReportStatus = "MANAGER_APPROVED"
	StatusGMReview        ReportStatus = "GM_REVIEW"
	StatusCompleted       ReportStatus = "COMPLETED"
	StatusManagerRejected ReportStatus = "MANAGER_REJECTED"
	StatusGMRejected      ReportStatus = "GM_REJECTED"

	// StatusRejected is a legacy value still present in rows migrated from the
	// old single-step flow. It is accepted on read but never written.
	StatusRejected ReportStatus = "REJECTED"
)

var validStatuses = map[ReportStatus]bool{
	StatusDraft:           true,
	StatusSubmitted:       true,
	StatusManagerReview:   true,
	StatusManagerApproved: true,
	StatusGMReview:        true,
	StatusCompleted:       true,
	StatusManagerRejected: true,
	StatusGMRejected:      true,
	StatusRejected:        true,
}

// IsValid reports whether s is a known status, legacy REJECTED included.
func (s ReportStatus) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal reports whether the workflow is finished for this report.
func (s ReportStatus) IsTerminal() bool {
	return s == StatusCompleted || s.IsRejected()
}

// IsRejected covers both tiers of rejection plus the legacy value.
func (s ReportStatus) IsRejected() bool {
	return s == StatusManagerRejected || s == StatusGMRejected || s == StatusRejected
}

// CanBeEdited reports whether report content may still change.
func (s ReportStatus) CanBeEdited() bool {
	return s == StatusDraft
}

// IsInProgress reports whether the report sits in an active review queue.
func (s ReportStatus) IsInProgress() bool {
	switch s {
	case StatusSubmitted, StatusManagerReview, StatusManagerApproved, StatusGMReview:
		return true
	}
	return false
}

// Department constants. Reports and users both carry a department; line
// manager approval is scoped to it.
const (
	DeptProjectSupport = "project_support"
	DeptDocManagement  = "doc_management"
	DeptConstruction   = "construction"
	DeptSafety         = "safety"
	DeptAdministration = "administration"
)

// ValidDepartment reports whether d is one of the known departments.
func ValidDepartment(d string) bool {
	switch d {
	case DeptProjectSupport, DeptDocManagement, DeptConstruction, DeptSafety, DeptAdministration:
		return true
	}
	return false
}

// Report is the central workflow entity. Version backs the optimistic lock:
// every successful transition or edit increments it, and stale writers lose.
type Report struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string          `gorm:"type:varchar(255);not null" json:"title"`
	Content         string          `gorm:"type:text" json:"content"`
	Cost            decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"cost"`
	Status          ReportStatus    `gorm:"type:varchar(30);not null;index" json:"status"`
	Department      string          `gorm:"type:varchar(30);not null;index" json:"department"`
	CreatorID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"creator_id"`
	Creator         *User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason,omitempty"`
	RejectedBy      *uuid.UUID      `gorm:"type:uuid" json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	Version         int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	LastModifiedAt  time.Time       `gorm:"autoUpdateTime" json:"last_modified_at"`
}
