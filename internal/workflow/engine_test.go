package workflow_test

import (
	"context"
	"encoding/json"
	"testing"

	"reportflow/internal/model"
	"reportflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recordingDispatcher struct {
	events []workflow.Event
}

func (d *recordingDispatcher) Enqueue(event workflow.Event) {
	d.events = append(d.events, event)
}

type engineFixture struct {
	db         *gorm.DB
	engine     *workflow.Engine
	dispatcher *recordingDispatcher
	creator    *model.User
	manager    *model.User
	gm         *model.User
}

func newEngineFixture(t *testing.T) *engineFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Report{},
		&model.ReportSignature{},
		&model.AuditLog{},
		&model.Notification{},
	))

	f := &engineFixture{
		db:         db,
		dispatcher: &recordingDispatcher{},
		creator:    &model.User{Username: "alice", Email: "alice@example.com", Password: "x", Role: model.RoleStaff, Department: model.DeptConstruction},
		manager:    &model.User{Username: "bob", Email: "bob@example.com", Password: "x", Role: model.RoleManager, Department: model.DeptConstruction},
		gm:         &model.User{Username: "carol", Email: "carol@example.com", Password: "x", Role: model.RoleGM, Department: model.DeptAdministration},
	}
	f.engine = workflow.NewEngine(db, f.dispatcher, nil)

	for _, u := range []*model.User{f.creator, f.manager, f.gm} {
		require.NoError(t, db.Create(u).Error)
	}
	return f
}

func (f *engineFixture) newDraft(t *testing.T) *model.Report {
	r := &model.Report{
		Title:      "Monthly site inspection",
		Content:    "All scaffolding checked.",
		Cost:       decimal.NewFromInt(1500),
		Status:     model.StatusDraft,
		Department: model.DeptConstruction,
		CreatorID:  f.creator.ID,
	}
	require.NoError(t, f.db.Create(r).Error)
	return r
}

func (f *engineFixture) auditActions(t *testing.T, reportID uuid.UUID) []string {
	var logs []model.AuditLog
	require.NoError(t, f.db.Where("report_id = ?", reportID).Order("created_at asc").Find(&logs).Error)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	return actions
}

func TestEngine_FullApprovalChain(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	draft := f.newDraft(t)

	// Submit: DRAFT folds forward to MANAGER_REVIEW.
	r, err := f.engine.Submit(ctx, draft.ID, f.creator.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusManagerReview, r.Status)
	assert.Equal(t, int64(1), r.Version)

	// Manager approval folds forward to GM_REVIEW.
	r, err = f.engine.Approve(ctx, draft.ID, f.manager.ID, "looks good")
	require.NoError(t, err)
	assert.Equal(t, model.StatusGMReview, r.Status)
	assert.Equal(t, int64(2), r.Version)

	// GM approval completes the report.
	r, err = f.engine.Approve(ctx, draft.ID, f.gm.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, r.Status)
	assert.Equal(t, int64(3), r.Version)

	// One signature per approval tier.
	var signatures []model.ReportSignature
	require.NoError(t, f.db.Where("report_id = ?", draft.ID).Order("signed_at asc").Find(&signatures).Error)
	require.Len(t, signatures, 2)
	assert.Equal(t, model.SignatureManager, signatures[0].SignatureType)
	assert.Equal(t, f.manager.ID, signatures[0].UserID)
	assert.Equal(t, "looks good", signatures[0].Comments)
	assert.Equal(t, model.SignatureGM, signatures[1].SignatureType)
	assert.Equal(t, f.gm.ID, signatures[1].UserID)

	// Audit trail covers every transition.
	assert.Equal(t,
		[]string{model.ActionSubmitted, model.ActionApproved, model.ActionApproved},
		f.auditActions(t, draft.ID))

	// Notifications fanned out per transition.
	require.Len(t, f.dispatcher.events, 3)
	assert.Equal(t, model.EventReportSubmitted, f.dispatcher.events[0].Type)
	assert.Equal(t, model.EventReportApproved, f.dispatcher.events[1].Type)
	assert.Equal(t, model.EventReportCompleted, f.dispatcher.events[2].Type)
}

func TestEngine_ManagerRejectRequiresReason(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	draft := f.newDraft(t)

	_, err := f.engine.Submit(ctx, draft.ID, f.creator.ID)
	require.NoError(t, err)

	_, err = f.engine.Reject(ctx, draft.ID, f.manager.ID, "   ")
	assert.ErrorIs(t, err, workflow.ErrValidation)

	r, err := f.engine.Reject(ctx, draft.ID, f.manager.ID, "missing cost breakdown")
	require.NoError(t, err)
	assert.Equal(t, model.StatusManagerRejected, r.Status)
	assert.Equal(t, "missing cost breakdown", r.RejectionReason)
	require.NotNil(t, r.RejectedBy)
	assert.Equal(t, f.manager.ID, *r.RejectedBy)
	assert.NotNil(t, r.RejectedAt)

	// Terminal: nothing else is possible.
	_, err = f.engine.Approve(ctx, draft.ID, f.manager.ID, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	_, err = f.engine.Submit(ctx, draft.ID, f.creator.ID)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestEngine_GMRejectNotifiesCreatorAndManagers(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	draft := f.newDraft(t)

	_, err := f.engine.Submit(ctx, draft.ID, f.creator.ID)
	require.NoError(t, err)
	_, err = f.engine.Approve(ctx, draft.ID, f.manager.ID, "")
	require.NoError(t, err)

	r, err := f.engine.Reject(ctx, draft.ID, f.gm.ID, "over budget")
	require.NoError(t, err)
	assert.Equal(t, model.StatusGMRejected, r.Status)

	last := f.dispatcher.events[len(f.dispatcher.events)-1]
	assert.Equal(t, model.EventReportRejected, last.Type)
	require.Len(t, last.Recipients, 2)
	assert.Equal(t, workflow.SelectorCreator, last.Recipients[0].Kind)
	assert.Equal(t, workflow.SelectorDeptManagers, last.Recipients[1].Kind)
	assert.Equal(t, model.DeptConstruction, last.Recipients[1].Department)
}

func TestEngine_UnauthorizedActionLeavesReportUntouched(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	draft := f.newDraft(t)

	_, err := f.engine.Submit(ctx, draft.ID, f.creator.ID)
	require.NoError(t, err)

	otherManager := &model.User{Username: "dave", Email: "dave@example.com", Password: "x", Role: model.RoleManager, Department: model.DeptSafety}
	require.NoError(t, f.db.Create(otherManager).Error)

	_, err = f.engine.Approve(ctx, draft.ID, otherManager.ID, "")
	assert.ErrorIs(t, err, workflow.ErrAuthorization)

	var stored model.Report
	require.NoError(t, f.db.First(&stored, "id = ?", draft.ID).Error)
	assert.Equal(t, model.StatusManagerReview, stored.Status)
	assert.Equal(t, int64(1), stored.Version)

	var sigCount int64
	require.NoError(t, f.db.Model(&model.ReportSignature{}).Where("report_id = ?", draft.ID).Count(&sigCount).Error)
	assert.Zero(t, sigCount)

	// The failed attempt left no audit entry either.
	assert.Equal(t, []string{model.ActionSubmitted}, f.auditActions(t, draft.ID))
}

func TestEngine_ConcurrentApprovalConflict(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	draft := f.newDraft(t)

	_, err := f.engine.Submit(ctx, draft.ID, f.creator.ID)
	require.NoError(t, err)

	// Splice a competing writer between the engine's read and its
	// version-guarded UPDATE, the way a second approval committing first
	// would land under read-committed isolation.
	armed := true
	err = f.db.Callback().Update().Before("gorm:update").Register("competing_writer", func(tx *gorm.DB) {
		if !armed {
			return
		}
		if _, ok := tx.Statement.Model.(*model.Report); !ok {
			return
		}
		armed = false
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE reports SET version = version + 1 WHERE id = ?", draft.ID).Error)
	})
	require.NoError(t, err)

	_, err = f.engine.Approve(ctx, draft.ID, f.manager.ID, "racing")
	assert.ErrorIs(t, err, workflow.ErrConcurrencyConflict)

	// The losing transaction left nothing behind.
	var stored model.Report
	require.NoError(t, f.db.First(&stored, "id = ?", draft.ID).Error)
	assert.Equal(t, model.StatusManagerReview, stored.Status)
	assert.Equal(t, int64(1), stored.Version)

	var sigCount int64
	require.NoError(t, f.db.Model(&model.ReportSignature{}).Where("report_id = ?", draft.ID).Count(&sigCount).Error)
	assert.Zero(t, sigCount)
	assert.Equal(t, []string{model.ActionSubmitted}, f.auditActions(t, draft.ID))

	// A retry against the fresh row wins: one approval, one signature.
	r, err := f.engine.Approve(ctx, draft.ID, f.manager.ID, "second pass")
	require.NoError(t, err)
	assert.Equal(t, model.StatusGMReview, r.Status)
	require.NoError(t, f.db.Model(&model.ReportSignature{}).Where("report_id = ?", draft.ID).Count(&sigCount).Error)
	assert.Equal(t, int64(1), sigCount)
	assert.Equal(t,
		[]string{model.ActionSubmitted, model.ActionApproved},
		f.auditActions(t, draft.ID))
}

func TestEngine_EditDraftOnly(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	draft := f.newDraft(t)

	title := "Revised inspection report"
	cost := decimal.NewFromInt(1750)
	r, err := f.engine.Edit(ctx, draft.ID, f.creator.ID, workflow.EditFields{Title: &title, Cost: &cost})
	require.NoError(t, err)
	assert.Equal(t, title, r.Title)
	assert.True(t, cost.Equal(r.Cost))
	assert.Equal(t, int64(1), r.Version)

	// The audit entry records the edited fields only, not the version
	// bookkeeping columns.
	var logs []model.AuditLog
	require.NoError(t, f.db.Where("report_id = ? AND action = ?", draft.ID, model.ActionUpdated).Find(&logs).Error)
	require.Len(t, logs, 1)
	var details struct {
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(logs[0].Details), &details))
	assert.ElementsMatch(t, []string{"title", "cost"}, details.Fields)

	_, err = f.engine.Submit(ctx, draft.ID, f.creator.ID)
	require.NoError(t, err)

	_, err = f.engine.Edit(ctx, draft.ID, f.creator.ID, workflow.EditFields{Title: &title})
	assert.ErrorIs(t, err, workflow.ErrEditNotAllowed)
}

func TestEngine_EditValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	draft := f.newDraft(t)

	empty := "  "
	_, err := f.engine.Edit(ctx, draft.ID, f.creator.ID, workflow.EditFields{Title: &empty})
	assert.ErrorIs(t, err, workflow.ErrValidation)

	negative := decimal.NewFromInt(-5)
	_, err = f.engine.Edit(ctx, draft.ID, f.creator.ID, workflow.EditFields{Cost: &negative})
	assert.ErrorIs(t, err, workflow.ErrValidation)

	_, err = f.engine.Edit(ctx, draft.ID, f.creator.ID, workflow.EditFields{})
	assert.ErrorIs(t, err, workflow.ErrValidation)
}

func TestEngine_UnknownReportAndActor(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	draft := f.newDraft(t)

	_, err := f.engine.Submit(ctx, uuid.New(), f.creator.ID)
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	_, err = f.engine.Submit(ctx, draft.ID, uuid.New())
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}
