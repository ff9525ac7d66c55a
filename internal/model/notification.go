package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification channel constants
const (
	ChannelEmail   = "email"
	ChannelSMS     = "sms"
	ChannelWebhook = "webhook"
	ChannelPush    = "push"
)

// Notification event types emitted by the workflow engine
const (
	EventReportSubmitted = "REPORT_SUBMITTED"
	EventReportApproved  = "REPORT_APPROVED"
	EventReportCompleted = "REPORT_COMPLETED"
	EventReportRejected  = "REPORT_REJECTED"
)

// Notification is the in-app copy of a dispatched workflow event, one row per
// recipient. Delivery over the external channels is best-effort; this row is
// what the recipient sees in the bell menu regardless of channel outcome.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	EventType   string     `gorm:"type:varchar(30);not null;index" json:"event_type"`
	ReportID    *uuid.UUID `gorm:"type:uuid;index" json:"report_id"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	IsRead      bool       `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
