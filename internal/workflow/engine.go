package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reportflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine is the single authority over Report.status. Every transition runs
// in one transaction: the version-guarded status update, the signature row
// (for approvals) and the audit entry commit together or not at all.
// Notification events are enqueued only after the commit succeeds, so a dead
// notification channel can never make an approval "not have happened".
type Engine struct {
	db         *gorm.DB
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewEngine creates the workflow engine. The dispatcher may be nil in tests
// that only care about state.
func NewEngine(db *gorm.DB, dispatcher Dispatcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{db: db, dispatcher: dispatcher, logger: logger}
}

// EditFields carries the mutable report fields for Edit. Nil means unchanged.
type EditFields struct {
	Title   *string
	Content *string
	Cost    *decimal.Decimal
}

// Submit moves a DRAFT report into the approval chain. The transient
// SUBMITTED status auto-advances to MANAGER_REVIEW before the row is saved.
func (e *Engine) Submit(ctx context.Context, reportID, actorID uuid.UUID) (*model.Report, error) {
	var report *model.Report

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, r, err := e.loadForAction(tx, reportID, actorID, ActionSubmit)
		if err != nil {
			return err
		}
		report = r

		tr, _ := ruleFor(ActionSubmit, report.Status)
		newStatus := autoAdvance(tr.to)

		if err := e.applyVersioned(tx, report, map[string]interface{}{"status": newStatus}); err != nil {
			return err
		}

		return e.appendAudit(tx, actor.ID, report.ID, tr.auditAction, map[string]interface{}{
			"from": string(report.Status),
			"to":   string(newStatus),
		})
	})
	if err != nil {
		return nil, err
	}

	e.emit(Event{
		Type:        model.EventReportSubmitted,
		ReportID:    report.ID,
		ReportTitle: report.Title,
		ActorID:     actorID,
		Message:     fmt.Sprintf("Report %q was submitted and awaits manager review", report.Title),
		Recipients: []RecipientSelector{
			{Kind: SelectorDeptManagers, Department: report.Department},
		},
	})

	return e.reload(ctx, report.ID)
}

// Approve applies the approval for the actor's tier: a line manager moves
// MANAGER_REVIEW forward (auto-advancing to GM_REVIEW), the GM completes the
// report. Exactly one ReportSignature is recorded per successful approval.
func (e *Engine) Approve(ctx context.Context, reportID, actorID uuid.UUID, comments string) (*model.Report, error) {
	var (
		report    *model.Report
		completed bool
	)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, r, err := e.loadForAction(tx, reportID, actorID, ActionApprove)
		if err != nil {
			return err
		}
		report = r

		tr, _ := ruleFor(ActionApprove, report.Status)
		newStatus := autoAdvance(tr.to)
		completed = newStatus == model.StatusCompleted

		if err := e.applyVersioned(tx, report, map[string]interface{}{"status": newStatus}); err != nil {
			return err
		}

		signature := model.ReportSignature{
			ReportID:      report.ID,
			UserID:        actor.ID,
			SignatureType: tr.signature,
			Comments:      comments,
			SignedAt:      time.Now(),
		}
		if err := tx.Create(&signature).Error; err != nil {
			return fmt.Errorf("failed to record signature: %w", err)
		}

		return e.appendAudit(tx, actor.ID, report.ID, tr.auditAction, map[string]interface{}{
			"from":      string(report.Status),
			"to":        string(newStatus),
			"signature": tr.signature,
			"comments":  comments,
		})
	})
	if err != nil {
		return nil, err
	}

	if completed {
		e.emit(Event{
			Type:        model.EventReportCompleted,
			ReportID:    report.ID,
			ReportTitle: report.Title,
			ActorID:     actorID,
			Message:     fmt.Sprintf("Report %q was approved by the general manager", report.Title),
			Recipients:  []RecipientSelector{{Kind: SelectorCreator, UserID: report.CreatorID}},
		})
	} else {
		e.emit(Event{
			Type:        model.EventReportApproved,
			ReportID:    report.ID,
			ReportTitle: report.Title,
			ActorID:     actorID,
			Message:     fmt.Sprintf("Report %q passed manager review and awaits GM review", report.Title),
			Recipients:  []RecipientSelector{{Kind: SelectorGMs}},
		})
	}

	return e.reload(ctx, report.ID)
}

// Reject terminates the report at the actor's tier. The reason is mandatory
// and is validated before any storage access.
func (e *Engine) Reject(ctx context.Context, reportID, actorID uuid.UUID, reason string) (*model.Report, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	var (
		report     *model.Report
		gmRejected bool
	)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, r, err := e.loadForAction(tx, reportID, actorID, ActionReject)
		if err != nil {
			return err
		}
		report = r

		tr, _ := ruleFor(ActionReject, report.Status)
		gmRejected = tr.to == model.StatusGMRejected

		now := time.Now()
		updates := map[string]interface{}{
			"status":           tr.to,
			"rejection_reason": reason,
			"rejected_by":      actor.ID,
			"rejected_at":      now,
		}
		if err := e.applyVersioned(tx, report, updates); err != nil {
			return err
		}

		return e.appendAudit(tx, actor.ID, report.ID, tr.auditAction, map[string]interface{}{
			"from":   string(report.Status),
			"to":     string(tr.to),
			"reason": reason,
		})
	})
	if err != nil {
		return nil, err
	}

	recipients := []RecipientSelector{{Kind: SelectorCreator, UserID: report.CreatorID}}
	if gmRejected {
		// The line manager who signed off also needs to know.
		recipients = append(recipients, RecipientSelector{Kind: SelectorDeptManagers, Department: report.Department})
	}
	e.emit(Event{
		Type:        model.EventReportRejected,
		ReportID:    report.ID,
		ReportTitle: report.Title,
		ActorID:     actorID,
		Message:     fmt.Sprintf("Report %q was rejected: %s", report.Title, reason),
		Recipients:  recipients,
	})

	return e.reload(ctx, report.ID)
}

// Edit mutates report content. The DRAFT-only guard is authoritative here,
// not advisory in the UI layer: any edit outside DRAFT fails.
func (e *Engine) Edit(ctx context.Context, reportID, actorID uuid.UUID, fields EditFields) (*model.Report, error) {
	updates := map[string]interface{}{}
	if fields.Title != nil {
		if strings.TrimSpace(*fields.Title) == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		updates["title"] = *fields.Title
	}
	if fields.Content != nil {
		updates["content"] = *fields.Content
	}
	if fields.Cost != nil {
		if fields.Cost.IsNegative() {
			return nil, fmt.Errorf("%w: cost must not be negative", ErrValidation)
		}
		updates["cost"] = *fields.Cost
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	var report *model.Report

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, r, err := e.loadForAction(tx, reportID, actorID, ActionEdit)
		if err != nil {
			return err
		}
		report = r

		if err := e.applyVersioned(tx, report, updates); err != nil {
			return err
		}

		changed := make([]string, 0, len(updates))
		for k := range updates {
			changed = append(changed, k)
		}
		return e.appendAudit(tx, actor.ID, report.ID, model.ActionUpdated, map[string]interface{}{
			"fields": changed,
		})
	})
	if err != nil {
		return nil, err
	}

	return e.reload(ctx, report.ID)
}

// --- internals ---

// loadForAction loads actor and report and runs the pure authorization
// predicate. Row-level guards come later via the version check.
func (e *Engine) loadForAction(tx *gorm.DB, reportID, actorID uuid.UUID, action Action) (*model.User, *model.Report, error) {
	var actor model.User
	if err := tx.First(&actor, "id = ?", actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: user %s", ErrNotFound, actorID)
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	var report model.Report
	if err := tx.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: report %s", ErrNotFound, reportID)
		}
		return nil, nil, fmt.Errorf("failed to load report: %w", err)
	}

	if err := CanAct(&actor, &report, action); err != nil {
		return nil, nil, err
	}

	return &actor, &report, nil
}

// applyVersioned performs the version-guarded UPDATE. A concurrent transition
// that committed first leaves zero matching rows, which surfaces as
// ErrConcurrencyConflict and rolls back everything in this transaction.
// The caller's updates map is left untouched.
func (e *Engine) applyVersioned(tx *gorm.DB, report *model.Report, updates map[string]interface{}) error {
	row := make(map[string]interface{}, len(updates)+2)
	for k, v := range updates {
		row[k] = v
	}
	row["version"] = report.Version + 1
	row["last_modified_at"] = time.Now()

	res := tx.Model(&model.Report{}).
		Where("id = ? AND version = ?", report.ID, report.Version).
		Updates(row)
	if res.Error != nil {
		return fmt.Errorf("failed to update report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: report %s changed underneath us", ErrConcurrencyConflict, report.ID)
	}
	return nil
}

// appendAudit writes the audit entry inside the same transaction as the
// state change. Audit writes are never best-effort: a failure here fails
// the whole transition.
func (e *Engine) appendAudit(tx *gorm.DB, userID, reportID uuid.UUID, action string, payload map[string]interface{}) error {
	details, _ := json.Marshal(payload)
	entry := model.AuditLog{
		UserID:   &userID,
		Action:   action,
		ReportID: &reportID,
		Details:  string(details),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// emit hands the event to the dispatcher. Fire-and-forget: the dispatcher
// queues internally, and a full queue only drops with a log line.
func (e *Engine) emit(event Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.Enqueue(event)
	e.logger.Debug("workflow event enqueued",
		zap.String("type", event.Type),
		zap.String("report_id", event.ReportID.String()))
}

// reload fetches the committed row with the creator preloaded.
func (e *Engine) reload(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := e.db.WithContext(ctx).Preload("Creator").First(&report, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload report: %w", err)
	}
	return &report, nil
}
