package workflow_test

import (
	"testing"

	"reportflow/internal/model"
	"reportflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func user(role, department string) *model.User {
	return &model.User{ID: uuid.New(), Role: role, Department: department}
}

func report(status model.ReportStatus, department string, creator uuid.UUID) *model.Report {
	return &model.Report{ID: uuid.New(), Status: status, Department: department, CreatorID: creator}
}

func TestCanAct_SubmitOnlyCreatorFromDraft(t *testing.T) {
	creator := user(model.RoleStaff, model.DeptConstruction)
	r := report(model.StatusDraft, model.DeptConstruction, creator.ID)

	assert.NoError(t, workflow.CanAct(creator, r, workflow.ActionSubmit))

	other := user(model.RoleStaff, model.DeptConstruction)
	err := workflow.CanAct(other, r, workflow.ActionSubmit)
	assert.ErrorIs(t, err, workflow.ErrAuthorization)

	submitted := report(model.StatusManagerReview, model.DeptConstruction, creator.ID)
	err = workflow.CanAct(creator, submitted, workflow.ActionSubmit)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestCanAct_ManagerApprovalScopedToDepartment(t *testing.T) {
	creator := uuid.New()
	r := report(model.StatusManagerReview, model.DeptSafety, creator)

	sameDept := user(model.RoleManager, model.DeptSafety)
	assert.NoError(t, workflow.CanAct(sameDept, r, workflow.ActionApprove))
	assert.NoError(t, workflow.CanAct(sameDept, r, workflow.ActionReject))

	otherDept := user(model.RoleManager, model.DeptAdministration)
	assert.ErrorIs(t, workflow.CanAct(otherDept, r, workflow.ActionApprove), workflow.ErrAuthorization)
	assert.ErrorIs(t, workflow.CanAct(otherDept, r, workflow.ActionReject), workflow.ErrAuthorization)

	staff := user(model.RoleStaff, model.DeptSafety)
	assert.ErrorIs(t, workflow.CanAct(staff, r, workflow.ActionApprove), workflow.ErrAuthorization)
}

func TestCanAct_GMActsAcrossDepartments(t *testing.T) {
	gm := user(model.RoleGM, model.DeptAdministration)

	for _, dept := range []string{model.DeptConstruction, model.DeptSafety, model.DeptDocManagement} {
		r := report(model.StatusGMReview, dept, uuid.New())
		assert.NoError(t, workflow.CanAct(gm, r, workflow.ActionApprove), "department %s", dept)
		assert.NoError(t, workflow.CanAct(gm, r, workflow.ActionReject), "department %s", dept)
	}
}

func TestCanAct_GMCannotActAtManagerTier(t *testing.T) {
	gm := user(model.RoleGM, model.DeptAdministration)
	r := report(model.StatusManagerReview, model.DeptConstruction, uuid.New())

	assert.ErrorIs(t, workflow.CanAct(gm, r, workflow.ActionApprove), workflow.ErrAuthorization)
}

func TestCanAct_ManagerCannotActAtGMTier(t *testing.T) {
	mgr := user(model.RoleManager, model.DeptConstruction)
	r := report(model.StatusGMReview, model.DeptConstruction, uuid.New())

	assert.ErrorIs(t, workflow.CanAct(mgr, r, workflow.ActionApprove), workflow.ErrAuthorization)
}

func TestCanAct_NoActionFromTerminalStates(t *testing.T) {
	mgr := user(model.RoleManager, model.DeptConstruction)
	gm := user(model.RoleGM, model.DeptAdministration)

	for _, status := range []model.ReportStatus{
		model.StatusCompleted,
		model.StatusManagerRejected,
		model.StatusGMRejected,
		model.StatusRejected,
	} {
		r := report(status, model.DeptConstruction, uuid.New())
		assert.ErrorIs(t, workflow.CanAct(mgr, r, workflow.ActionApprove), workflow.ErrInvalidTransition, "status %s", status)
		assert.ErrorIs(t, workflow.CanAct(gm, r, workflow.ActionReject), workflow.ErrInvalidTransition, "status %s", status)
	}
}

func TestCanAct_EditOnlyCreatorInDraft(t *testing.T) {
	creator := user(model.RoleStaff, model.DeptConstruction)
	draft := report(model.StatusDraft, model.DeptConstruction, creator.ID)

	assert.NoError(t, workflow.CanAct(creator, draft, workflow.ActionEdit))

	other := user(model.RoleAdmin, model.DeptConstruction)
	assert.ErrorIs(t, workflow.CanAct(other, draft, workflow.ActionEdit), workflow.ErrAuthorization)

	inReview := report(model.StatusManagerReview, model.DeptConstruction, creator.ID)
	assert.ErrorIs(t, workflow.CanAct(creator, inReview, workflow.ActionEdit), workflow.ErrEditNotAllowed)

	rejected := report(model.StatusManagerRejected, model.DeptConstruction, creator.ID)
	assert.ErrorIs(t, workflow.CanAct(creator, rejected, workflow.ActionEdit), workflow.ErrEditNotAllowed)
}
