package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreated    = "CREATED"
	ActionUpdated    = "UPDATED"
	ActionSubmitted  = "SUBMITTED"
	ActionApproved   = "APPROVED"
	ActionRejected   = "REJECTED"
	ActionSigned     = "SIGNED"
	ActionUploaded   = "UPLOADED"
	ActionDownloaded = "DOWNLOADED"
	ActionDeleted    = "DELETED"
)

// AuditLog tracks Who, What, and When for every state-changing action.
// Rows are append-only: written in the same transaction as the change they
// describe, never updated afterwards.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User      *User      `gorm:"foreignKey:UserID" json:"user"`
	Action    string     `gorm:"type:varchar(30);not null;index" json:"action"`
	ReportID  *uuid.UUID `gorm:"type:uuid;index" json:"report_id"`
	Details   string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
