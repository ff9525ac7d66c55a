package service_test

import (
	"context"
	"testing"

	"reportflow/internal/model"
	"reportflow/internal/repository"
	"reportflow/internal/service"
	"reportflow/internal/workflow"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db      *gorm.DB
	reports service.ReportService
	creator *model.User
	manager *model.User
	gm      *model.User
}

func newServiceFixture(t *testing.T) *serviceFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Report{},
		&model.ReportSignature{},
		&model.ReportAttachment{},
		&model.AuditLog{},
		&model.Notification{},
	))

	f := &serviceFixture{
		db:      db,
		creator: &model.User{Username: "alice", Email: "alice@example.com", Password: "x", Role: model.RoleStaff, Department: model.DeptDocManagement},
		manager: &model.User{Username: "bob", Email: "bob@example.com", Password: "x", Role: model.RoleManager, Department: model.DeptDocManagement},
		gm:      &model.User{Username: "carol", Email: "carol@example.com", Password: "x", Role: model.RoleGM, Department: model.DeptAdministration},
	}
	for _, u := range []*model.User{f.creator, f.manager, f.gm} {
		require.NoError(t, db.Create(u).Error)
	}

	engine := workflow.NewEngine(db, nil, nil)
	f.reports = service.NewReportService(
		db,
		engine,
		repository.NewReportRepository(db),
		repository.NewSignatureRepository(db),
		repository.NewAttachmentRepository(db),
	)
	return f
}

func TestReportService_CreateReport(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	resp, err := f.reports.CreateReport(ctx, f.creator.ID.String(), service.CreateReportRequest{
		Title:      "Archive migration plan",
		Content:    "Move 2019 records to cold storage.",
		Cost:       "1200.50",
		Department: model.DeptDocManagement,
	})
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusDraft), resp.Status)
	cost, err := decimal.NewFromString(resp.Cost)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.RequireFromString("1200.50")))
	assert.Equal(t, "alice", resp.CreatorName)
	assert.True(t, resp.CanBeEdited)
	assert.False(t, resp.IsInProgress)
	assert.Equal(t, int64(0), resp.Version)

	// Creation is audited.
	var logs []model.AuditLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionCreated, logs[0].Action)
}

func TestReportService_CreateReportValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.reports.CreateReport(ctx, f.creator.ID.String(), service.CreateReportRequest{
		Title:      "Bad dept",
		Department: "finance",
	})
	assert.ErrorIs(t, err, workflow.ErrValidation)

	_, err = f.reports.CreateReport(ctx, f.creator.ID.String(), service.CreateReportRequest{
		Title:      "Bad cost",
		Cost:       "-10",
		Department: model.DeptDocManagement,
	})
	assert.ErrorIs(t, err, workflow.ErrValidation)

	_, err = f.reports.CreateReport(ctx, "not-a-uuid", service.CreateReportRequest{
		Title:      "Bad creator",
		Department: model.DeptDocManagement,
	})
	assert.ErrorIs(t, err, workflow.ErrValidation)
}

func TestReportService_DetailCarriesSignatures(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.reports.CreateReport(ctx, f.creator.ID.String(), service.CreateReportRequest{
		Title:      "Quarterly summary",
		Department: model.DeptDocManagement,
	})
	require.NoError(t, err)

	_, err = f.reports.SubmitReport(ctx, created.ID, f.creator.ID.String())
	require.NoError(t, err)
	_, err = f.reports.ApproveReport(ctx, created.ID, f.manager.ID.String(), "checked")
	require.NoError(t, err)

	detail, err := f.reports.GetReport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusGMReview), detail.Status)
	require.Len(t, detail.Signatures, 1)
	assert.Equal(t, model.SignatureManager, detail.Signatures[0].SignatureType)
	assert.Equal(t, "bob", detail.Signatures[0].UserName)
	assert.Equal(t, "checked", detail.Signatures[0].Comments)
}

func TestReportService_RejectSurfacesReason(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.reports.CreateReport(ctx, f.creator.ID.String(), service.CreateReportRequest{
		Title:      "Incomplete report",
		Department: model.DeptDocManagement,
	})
	require.NoError(t, err)

	_, err = f.reports.SubmitReport(ctx, created.ID, f.creator.ID.String())
	require.NoError(t, err)

	rejected, err := f.reports.RejectReport(ctx, created.ID, f.manager.ID.String(), "missing appendix")
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusManagerRejected), rejected.Status)
	assert.Equal(t, "missing appendix", rejected.RejectionReason)
	require.NotNil(t, rejected.RejectedBy)
	assert.Equal(t, f.manager.ID.String(), *rejected.RejectedBy)
}

func TestReportService_ListFilters(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.reports.CreateReport(ctx, f.creator.ID.String(), service.CreateReportRequest{
			Title:      "Report",
			Department: model.DeptDocManagement,
		})
		require.NoError(t, err)
	}
	submitted, err := f.reports.CreateReport(ctx, f.creator.ID.String(), service.CreateReportRequest{
		Title:      "Submitted one",
		Department: model.DeptDocManagement,
	})
	require.NoError(t, err)
	_, err = f.reports.SubmitReport(ctx, submitted.ID, f.creator.ID.String())
	require.NoError(t, err)

	drafts, total, err := f.reports.ListReports(ctx, service.ReportListFilter{Status: string(model.StatusDraft)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, drafts, 3)

	inReview, total, err := f.reports.ListReports(ctx, service.ReportListFilter{Status: string(model.StatusManagerReview)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, inReview, 1)
	assert.Equal(t, submitted.ID, inReview[0].ID)

	byCreator, total, err := f.reports.ListReports(ctx, service.ReportListFilter{CreatorID: f.creator.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, byCreator, 4)
}
