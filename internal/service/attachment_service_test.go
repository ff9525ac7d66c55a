package service_test

import (
	"context"
	"testing"

	"reportflow/internal/model"
	"reportflow/internal/repository"
	"reportflow/internal/service"
	"reportflow/internal/storage"
	"reportflow/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type attachmentFixture struct {
	db          *gorm.DB
	attachments service.AttachmentService
	creator     *model.User
	outsider    *model.User
	report      *model.Report
}

func newAttachmentFixture(t *testing.T) *attachmentFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Report{},
		&model.ReportAttachment{},
		&model.AuditLog{},
	))

	store, err := storage.NewLocalAttachmentStore(t.TempDir(), nil)
	require.NoError(t, err)

	f := &attachmentFixture{
		db:       db,
		creator:  &model.User{Username: "alice", Email: "alice@example.com", Password: "x", Role: model.RoleStaff, Department: model.DeptSafety},
		outsider: &model.User{Username: "eve", Email: "eve@example.com", Password: "x", Role: model.RoleStaff, Department: model.DeptConstruction},
	}
	for _, u := range []*model.User{f.creator, f.outsider} {
		require.NoError(t, db.Create(u).Error)
	}

	f.report = &model.Report{
		Title:      "Harness inspection",
		Status:     model.StatusDraft,
		Department: model.DeptSafety,
		CreatorID:  f.creator.ID,
	}
	require.NoError(t, db.Create(f.report).Error)

	f.attachments = service.NewAttachmentService(db, repository.NewAttachmentRepository(db), store)
	return f
}

func TestAttachmentService_UploadDownloadRoundTrip(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()
	content := []byte("photo bytes")

	uploaded, err := f.attachments.Upload(ctx, f.report.ID.String(), f.creator.ID.String(), "harness.jpg", content)
	require.NoError(t, err)
	assert.Equal(t, "harness.jpg", uploaded.FileName)
	assert.Equal(t, model.StageInitial, uploaded.ApprovalStage)
	assert.Equal(t, int64(len(content)), uploaded.SizeBytes)
	assert.True(t, uploaded.IsActive)

	download, err := f.attachments.Download(ctx, uploaded.ID, f.creator.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "harness.jpg", download.FileName)
	assert.Equal(t, content, download.Content)

	// Upload and download are both audited.
	var actions []string
	require.NoError(t, f.db.Model(&model.AuditLog{}).Order("created_at asc").Pluck("action", &actions).Error)
	assert.Equal(t, []string{model.ActionUploaded, model.ActionDownloaded}, actions)
}

func TestAttachmentService_UploadAuthorization(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()

	// Staff from another department has no business here.
	_, err := f.attachments.Upload(ctx, f.report.ID.String(), f.outsider.ID.String(), "sneaky.txt", []byte("x"))
	assert.ErrorIs(t, err, workflow.ErrAuthorization)
}

func TestAttachmentService_UploadRejectedOnClosedReport(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Model(f.report).Update("status", model.StatusCompleted).Error)

	_, err := f.attachments.Upload(ctx, f.report.ID.String(), f.creator.ID.String(), "late.txt", []byte("x"))
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestAttachmentService_UploadValidation(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()

	_, err := f.attachments.Upload(ctx, f.report.ID.String(), f.creator.ID.String(), "empty.txt", nil)
	assert.ErrorIs(t, err, workflow.ErrValidation)
}

func TestAttachmentService_DeactivateOnlyUploaderOrAdmin(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()

	uploaded, err := f.attachments.Upload(ctx, f.report.ID.String(), f.creator.ID.String(), "doc.pdf", []byte("x"))
	require.NoError(t, err)

	err = f.attachments.Deactivate(ctx, uploaded.ID, f.outsider.ID.String())
	assert.ErrorIs(t, err, workflow.ErrAuthorization)

	require.NoError(t, f.attachments.Deactivate(ctx, uploaded.ID, f.creator.ID.String()))

	// Idempotent on repeat.
	require.NoError(t, f.attachments.Deactivate(ctx, uploaded.ID, f.creator.ID.String()))

	// Deactivated attachments are gone from downloads but listable on demand.
	_, err = f.attachments.Download(ctx, uploaded.ID, f.creator.ID.String())
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	active, err := f.attachments.ListByReport(ctx, f.report.ID.String(), false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := f.attachments.ListByReport(ctx, f.report.ID.String(), true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
}
