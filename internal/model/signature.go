package model

import (
	"time"

	"github.com/google/uuid"
)

// Signature types, one per approval tier.
const (
	SignatureManager = "MANAGER_SIGNATURE"
	SignatureGM      = "GM_SIGNATURE"
)

// ReportSignature records one approval sign-off. Rows are written only by the
// workflow engine, in the same transaction as the status change.
type ReportSignature struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID      uuid.UUID `gorm:"type:uuid;not null;index" json:"report_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	User          *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SignatureType string    `gorm:"type:varchar(30);not null" json:"signature_type"`
	Comments      string    `gorm:"type:text" json:"comments"`
	SignedAt      time.Time `gorm:"not null" json:"signed_at"`
}
