package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reportflow/internal/model"
	"reportflow/internal/repository"
	"reportflow/internal/storage"
	"reportflow/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type AttachmentResponse struct {
	ID            string `json:"id"`
	ReportID      string `json:"report_id"`
	FileName      string `json:"file_name"`
	SizeBytes     int64  `json:"size_bytes"`
	ApprovalStage string `json:"approval_stage"`
	UploadedBy    string `json:"uploaded_by"`
	UploaderName  string `json:"uploader_name"`
	IsActive      bool   `json:"is_active"`
	UploadedAt    string `json:"uploaded_at"`
}

// AttachmentDownload carries file content for the HTTP layer.
type AttachmentDownload struct {
	FileName string
	Content  []byte
}

// --- Interface ---

type AttachmentService interface {
	Upload(ctx context.Context, reportID, actorID, fileName string, content []byte) (*AttachmentResponse, error)
	Download(ctx context.Context, attachmentID, actorID string) (*AttachmentDownload, error)
	Deactivate(ctx context.Context, attachmentID, actorID string) error
	ListByReport(ctx context.Context, reportID string, includeInactive bool) ([]AttachmentResponse, error)
}

type attachmentService struct {
	db          *gorm.DB
	attachments repository.AttachmentRepository
	store       storage.AttachmentStore
}

func NewAttachmentService(db *gorm.DB, attachments repository.AttachmentRepository, store storage.AttachmentStore) AttachmentService {
	return &attachmentService{db: db, attachments: attachments, store: store}
}

// --- Implementation ---

const maxAttachmentSize = 25 << 20 // 25 MiB

// Upload stores the binary first, then commits the metadata row and the
// UPLOADED audit entry in one transaction. An orphaned file from a failed
// transaction is harmless; a metadata row without a file is not.
func (s *attachmentService) Upload(ctx context.Context, reportID, actorID, fileName string, content []byte) (*AttachmentResponse, error) {
	rid, err := uuid.Parse(reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid report id", workflow.ErrValidation)
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", workflow.ErrValidation)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", workflow.ErrValidation)
	}
	if len(content) > maxAttachmentSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", workflow.ErrValidation, maxAttachmentSize)
	}

	var report model.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", rid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: report %s", workflow.ErrNotFound, reportID)
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: report %s is closed", workflow.ErrInvalidTransition, reportID)
	}

	var uploader model.User
	if err := s.db.WithContext(ctx).First(&uploader, "id = ?", actor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", workflow.ErrNotFound, actorID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := canTouchAttachments(&uploader, &report); err != nil {
		return nil, err
	}

	stage := model.StageForStatus(report.Status)
	storedPath, err := s.store.Save(rid, stage, fileName, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	attachment := model.ReportAttachment{
		ReportID:      rid,
		FileName:      fileName,
		StoredPath:    storedPath,
		SizeBytes:     int64(len(content)),
		ApprovalStage: stage,
		UploadedBy:    actor,
		IsActive:      true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if createErr := tx.Create(&attachment).Error; createErr != nil {
			return fmt.Errorf("failed to create attachment: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"file_name": fileName,
			"stage":     stage,
			"size":      len(content),
		})
		audit := model.AuditLog{
			UserID:   &actor,
			Action:   model.ActionUploaded,
			ReportID: &rid,
			Details:  string(details),
		}
		if auditErr := tx.Create(&audit).Error; auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toAttachmentResponse(attachment)
	resp.UploaderName = uploader.Username
	return &resp, nil
}

func (s *attachmentService) Download(ctx context.Context, attachmentID, actorID string) (*AttachmentDownload, error) {
	aid, err := uuid.Parse(attachmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid attachment id", workflow.ErrValidation)
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", workflow.ErrValidation)
	}

	attachment, err := s.attachments.FindByID(ctx, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: attachment %s", workflow.ErrNotFound, attachmentID)
		}
		return nil, fmt.Errorf("failed to load attachment: %w", err)
	}
	if !attachment.IsActive {
		return nil, fmt.Errorf("%w: attachment %s", workflow.ErrNotFound, attachmentID)
	}

	content, err := s.store.Read(attachment.StoredPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	// Downloads are audited too, not just status changes.
	details, _ := json.Marshal(map[string]interface{}{"file_name": attachment.FileName})
	audit := model.AuditLog{
		UserID:   &actor,
		Action:   model.ActionDownloaded,
		ReportID: &attachment.ReportID,
		Details:  string(details),
	}
	if auditErr := s.db.WithContext(ctx).Create(&audit).Error; auditErr != nil {
		return nil, fmt.Errorf("failed to write audit log: %w", auditErr)
	}

	return &AttachmentDownload{FileName: attachment.FileName, Content: content}, nil
}

// Deactivate soft-deletes the attachment. Only the uploader or an admin may
// do it; the file and row survive for audit continuity.
func (s *attachmentService) Deactivate(ctx context.Context, attachmentID, actorID string) error {
	aid, err := uuid.Parse(attachmentID)
	if err != nil {
		return fmt.Errorf("%w: invalid attachment id", workflow.ErrValidation)
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", workflow.ErrValidation)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attachment model.ReportAttachment
		if findErr := tx.First(&attachment, "id = ?", aid).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: attachment %s", workflow.ErrNotFound, attachmentID)
			}
			return fmt.Errorf("failed to load attachment: %w", findErr)
		}
		if !attachment.IsActive {
			return nil // already deactivated, idempotent
		}

		var user model.User
		if findErr := tx.First(&user, "id = ?", actor).Error; findErr != nil {
			return fmt.Errorf("%w: user %s", workflow.ErrNotFound, actorID)
		}
		if attachment.UploadedBy != actor && user.Role != model.RoleAdmin {
			return fmt.Errorf("%w: only the uploader may remove an attachment", workflow.ErrAuthorization)
		}

		if updateErr := tx.Model(&attachment).Update("is_active", false).Error; updateErr != nil {
			return fmt.Errorf("failed to deactivate attachment: %w", updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"file_name": attachment.FileName})
		audit := model.AuditLog{
			UserID:   &actor,
			Action:   model.ActionDeleted,
			ReportID: &attachment.ReportID,
			Details:  string(details),
		}
		if auditErr := tx.Create(&audit).Error; auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
}

func (s *attachmentService) ListByReport(ctx context.Context, reportID string, includeInactive bool) ([]AttachmentResponse, error) {
	rid, err := uuid.Parse(reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid report id", workflow.ErrValidation)
	}

	attachments, err := s.attachments.ListByReport(ctx, rid, !includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachments: %w", err)
	}

	result := make([]AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		result = append(result, toAttachmentResponse(a))
	}
	return result, nil
}

// canTouchAttachments mirrors the workflow tiers: the creator, a line manager
// of the report's department, the GM, or an admin.
func canTouchAttachments(actor *model.User, report *model.Report) error {
	switch {
	case actor.ID == report.CreatorID:
		return nil
	case actor.Role == model.RoleManager && actor.Department == report.Department:
		return nil
	case actor.Role == model.RoleGM, actor.Role == model.RoleAdmin:
		return nil
	}
	return fmt.Errorf("%w: no access to this report's attachments", workflow.ErrAuthorization)
}

func toAttachmentResponse(a model.ReportAttachment) AttachmentResponse {
	resp := AttachmentResponse{
		ID:            a.ID.String(),
		ReportID:      a.ReportID.String(),
		FileName:      a.FileName,
		SizeBytes:     a.SizeBytes,
		ApprovalStage: a.ApprovalStage,
		UploadedBy:    a.UploadedBy.String(),
		IsActive:      a.IsActive,
		UploadedAt:    a.UploadedAt.Format(time.RFC3339),
	}
	if a.Uploader != nil {
		resp.UploaderName = a.Uploader.Username
	}
	return resp
}
