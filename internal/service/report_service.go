package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reportflow/internal/model"
	"reportflow/internal/repository"
	"reportflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateReportRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content"`
	Cost       string `json:"cost"` // decimal string, optional
	Department string `json:"department" binding:"required"`
}

type UpdateReportRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Cost    *string `json:"cost"`
}

type ApproveReportRequest struct {
	Comments string `json:"comments"`
}

type RejectReportRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ReportListFilter struct {
	Status     string
	Department string
	CreatorID  string
	Page       int
	Limit      int
}

type ReportResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Cost            string  `json:"cost"`
	Status          string  `json:"status"`
	Department      string  `json:"department"`
	CreatorID       string  `json:"creator_id"`
	CreatorName     string  `json:"creator_name"`
	CanBeEdited     bool    `json:"can_be_edited"`
	IsInProgress    bool    `json:"is_in_progress"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	RejectedBy      *string `json:"rejected_by,omitempty"`
	RejectedAt      *string `json:"rejected_at,omitempty"`
	Version         int64   `json:"version"`
	CreatedAt       string  `json:"created_at"`
	LastModifiedAt  string  `json:"last_modified_at"`
}

type SignatureResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
	SignatureType string `json:"signature_type"`
	Comments      string `json:"comments"`
	SignedAt      string `json:"signed_at"`
}

type ReportDetailResponse struct {
	ReportResponse
	Signatures  []SignatureResponse  `json:"signatures"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// --- Interface ---

type ReportService interface {
	CreateReport(ctx context.Context, creatorID string, req CreateReportRequest) (*ReportResponse, error)
	GetReport(ctx context.Context, id string) (*ReportDetailResponse, error)
	ListReports(ctx context.Context, filter ReportListFilter) ([]ReportResponse, int64, error)
	UpdateReport(ctx context.Context, id, actorID string, req UpdateReportRequest) (*ReportResponse, error)
	SubmitReport(ctx context.Context, id, actorID string) (*ReportResponse, error)
	ApproveReport(ctx context.Context, id, actorID, comments string) (*ReportResponse, error)
	RejectReport(ctx context.Context, id, actorID, reason string) (*ReportResponse, error)
}

type reportService struct {
	db          *gorm.DB
	engine      *workflow.Engine
	reports     repository.ReportRepository
	signatures  repository.SignatureRepository
	attachments repository.AttachmentRepository
}

func NewReportService(
	db *gorm.DB,
	engine *workflow.Engine,
	reports repository.ReportRepository,
	signatures repository.SignatureRepository,
	attachments repository.AttachmentRepository,
) ReportService {
	return &reportService{
		db:          db,
		engine:      engine,
		reports:     reports,
		signatures:  signatures,
		attachments: attachments,
	}
}

// --- Implementation ---

func (s *reportService) CreateReport(ctx context.Context, creatorID string, req CreateReportRequest) (*ReportResponse, error) {
	creator, err := uuid.Parse(creatorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid creator id", workflow.ErrValidation)
	}
	if !model.ValidDepartment(req.Department) {
		return nil, fmt.Errorf("%w: unknown department %q", workflow.ErrValidation, req.Department)
	}

	cost := decimal.Zero
	if req.Cost != "" {
		parsed, parseErr := decimal.NewFromString(req.Cost)
		if parseErr != nil || parsed.IsNegative() {
			return nil, fmt.Errorf("%w: invalid cost %q", workflow.ErrValidation, req.Cost)
		}
		cost = parsed
	}

	report := model.Report{
		Title:      req.Title,
		Content:    req.Content,
		Cost:       cost,
		Status:     model.StatusDraft,
		Department: req.Department,
		CreatorID:  creator,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if createErr := tx.Create(&report).Error; createErr != nil {
			return fmt.Errorf("failed to create report: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"title":      req.Title,
			"department": req.Department,
		})
		audit := model.AuditLog{
			UserID:   &creator,
			Action:   model.ActionCreated,
			ReportID: &report.ID,
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

	loaded, err := s.reports.FindByIDWithRelations(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload report: %w", err)
	}

	resp := toReportResponse(*loaded)
	return &resp, nil
}

func (s *reportService) GetReport(ctx context.Context, id string) (*ReportDetailResponse, error) {
	reportID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid report id", workflow.ErrValidation)
	}

	report, err := s.reports.FindByIDWithRelations(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: report %s", workflow.ErrNotFound, id)
	}

	signatures, err := s.signatures.ListByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signatures: %w", err)
	}

	attachments, err := s.attachments.ListByReport(ctx, reportID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachments: %w", err)
	}

	detail := ReportDetailResponse{
		ReportResponse: toReportResponse(*report),
		Signatures:     make([]SignatureResponse, 0, len(signatures)),
		Attachments:    make([]AttachmentResponse, 0, len(attachments)),
	}
	for _, sig := range signatures {
		detail.Signatures = append(detail.Signatures, toSignatureResponse(sig))
	}
	for _, att := range attachments {
		detail.Attachments = append(detail.Attachments, toAttachmentResponse(att))
	}

	return &detail, nil
}

func (s *reportService) ListReports(ctx context.Context, filter ReportListFilter) ([]ReportResponse, int64, error) {
	repoFilter := repository.ReportFilter{
		Status:     filter.Status,
		Department: filter.Department,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}
	if filter.CreatorID != "" {
		creator, err := uuid.Parse(filter.CreatorID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: invalid creator id", workflow.ErrValidation)
		}
		repoFilter.CreatorID = &creator
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}

	reports, total, err := s.reports.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reports: %w", err)
	}

	result := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		result = append(result, toReportResponse(r))
	}

	return result, total, nil
}

func (s *reportService) UpdateReport(ctx context.Context, id, actorID string, req UpdateReportRequest) (*ReportResponse, error) {
	reportID, actor, err := parseIDs(id, actorID)
	if err != nil {
		return nil, err
	}

	fields := workflow.EditFields{Title: req.Title, Content: req.Content}
	if req.Cost != nil {
		parsed, parseErr := decimal.NewFromString(*req.Cost)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: invalid cost %q", workflow.ErrValidation, *req.Cost)
		}
		fields.Cost = &parsed
	}

	report, err := s.engine.Edit(ctx, reportID, actor, fields)
	if err != nil {
		return nil, err
	}

	resp := toReportResponse(*report)
	return &resp, nil
}

func (s *reportService) SubmitReport(ctx context.Context, id, actorID string) (*ReportResponse, error) {
	reportID, actor, err := parseIDs(id, actorID)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.Submit(ctx, reportID, actor)
	if err != nil {
		return nil, err
	}

	resp := toReportResponse(*report)
	return &resp, nil
}

func (s *reportService) ApproveReport(ctx context.Context, id, actorID, comments string) (*ReportResponse, error) {
	reportID, actor, err := parseIDs(id, actorID)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.Approve(ctx, reportID, actor, comments)
	if err != nil {
		return nil, err
	}

	resp := toReportResponse(*report)
	return &resp, nil
}

func (s *reportService) RejectReport(ctx context.Context, id, actorID, reason string) (*ReportResponse, error) {
	reportID, actor, err := parseIDs(id, actorID)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.Reject(ctx, reportID, actor, reason)
	if err != nil {
		return nil, err
	}

	resp := toReportResponse(*report)
	return &resp, nil
}

// --- Helpers ---

func parseIDs(reportID, actorID string) (uuid.UUID, uuid.UUID, error) {
	rid, err := uuid.Parse(reportID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid report id", workflow.ErrValidation)
	}
	aid, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid user id", workflow.ErrValidation)
	}
	return rid, aid, nil
}

func toReportResponse(r model.Report) ReportResponse {
	resp := ReportResponse{
		ID:              r.ID.String(),
		Title:           r.Title,
		Content:         r.Content,
		Cost:            r.Cost.String(),
		Status:          string(r.Status),
		Department:      r.Department,
		CreatorID:       r.CreatorID.String(),
		CanBeEdited:     r.Status.CanBeEdited(),
		IsInProgress:    r.Status.IsInProgress(),
		RejectionReason: r.RejectionReason,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		LastModifiedAt:  r.LastModifiedAt.Format(time.RFC3339),
	}

	if r.Creator != nil {
		resp.CreatorName = r.Creator.Username
	}
	if r.RejectedBy != nil {
		s := r.RejectedBy.String()
		resp.RejectedBy = &s
	}
	if r.RejectedAt != nil {
		s := r.RejectedAt.Format(time.RFC3339)
		resp.RejectedAt = &s
	}

	return resp
}

func toSignatureResponse(sig model.ReportSignature) SignatureResponse {
	resp := SignatureResponse{
		ID:            sig.ID.String(),
		UserID:        sig.UserID.String(),
		SignatureType: sig.SignatureType,
		Comments:      sig.Comments,
		SignedAt:      sig.SignedAt.Format(time.RFC3339),
	}
	if sig.User != nil {
		resp.UserName = sig.User.Username
	}
	return resp
}
