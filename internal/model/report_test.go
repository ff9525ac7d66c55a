package model_test

import (
	"testing"

	"reportflow/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestReportStatusPredicates(t *testing.T) {
	tests := []struct {
		status     model.ReportStatus
		terminal   bool
		rejected   bool
		editable   bool
		inProgress bool
	}{
		{model.StatusDraft, false, false, true, false},
		{model.StatusSubmitted, false, false, false, true},
		{model.StatusManagerReview, false, false, false, true},
		{model.StatusManagerApproved, false, false, false, true},
		{model.StatusGMReview, false, false, false, true},
		{model.StatusCompleted, true, false, false, false},
		{model.StatusManagerRejected, true, true, false, false},
		{model.StatusGMRejected, true, true, false, false},
		{model.StatusRejected, true, true, false, false},
	}

	for _, tt := range tests {
		assert.True(t, tt.status.IsValid(), "%s should be valid", tt.status)
		assert.Equal(t, tt.terminal, tt.status.IsTerminal(), "IsTerminal %s", tt.status)
		assert.Equal(t, tt.rejected, tt.status.IsRejected(), "IsRejected %s", tt.status)
		assert.Equal(t, tt.editable, tt.status.CanBeEdited(), "CanBeEdited %s", tt.status)
		assert.Equal(t, tt.inProgress, tt.status.IsInProgress(), "IsInProgress %s", tt.status)
	}

	assert.False(t, model.ReportStatus("PENDING").IsValid())
}

func TestStageForStatus(t *testing.T) {
	assert.Equal(t, model.StageInitial, model.StageForStatus(model.StatusDraft))
	assert.Equal(t, model.StageManagerReview, model.StageForStatus(model.StatusManagerReview))
	assert.Equal(t, model.StageGMReview, model.StageForStatus(model.StatusManagerApproved))
	assert.Equal(t, model.StageGMReview, model.StageForStatus(model.StatusGMReview))
	assert.Equal(t, model.StageInitial, model.StageForStatus(model.StatusCompleted))
}

func TestValidDepartmentAndRole(t *testing.T) {
	for _, d := range []string{
		model.DeptProjectSupport,
		model.DeptDocManagement,
		model.DeptConstruction,
		model.DeptSafety,
		model.DeptAdministration,
	} {
		assert.True(t, model.ValidDepartment(d))
	}
	assert.False(t, model.ValidDepartment("finance"))

	for _, r := range []string{model.RoleStaff, model.RoleManager, model.RoleGM, model.RoleAdmin} {
		assert.True(t, model.ValidRole(r))
	}
	assert.False(t, model.ValidRole("supervisor"))
}
