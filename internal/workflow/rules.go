package workflow

import (
	"fmt"

	"reportflow/internal/model"
)

// Action is a workflow operation requested by an actor.
type Action string

const (
	ActionSubmit  Action = "SUBMIT"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionEdit    Action = "EDIT"
)

// rule is one edge of the transition graph: from a source status, an actor
// holding the required role (and, for manager-tier rules, matching the
// report's department) moves the report to the target status.
type rule struct {
	from         model.ReportStatus
	role         string
	sameDept     bool // manager-tier rules require actor.Department == report.Department
	creatorOnly  bool
	to           model.ReportStatus
	signature    string // signature type recorded on approval edges, empty otherwise
	auditAction  string
}

// transitions is the authoritative transition table. SUBMITTED and
// MANAGER_APPROVED are transient: autoAdvance folds them forward before the
// row is persisted, so the stored status sequence is a subsequence of the full
// chain. The legacy REJECTED value is deliberately absent as a target.
var transitions = map[Action][]rule{
	ActionSubmit: {
		{from: model.StatusDraft, role: model.RoleStaff, creatorOnly: true,
			to: model.StatusSubmitted, auditAction: model.ActionSubmitted},
	},
	ActionApprove: {
		{from: model.StatusManagerReview, role: model.RoleManager, sameDept: true,
			to: model.StatusManagerApproved, signature: model.SignatureManager, auditAction: model.ActionApproved},
		{from: model.StatusGMReview, role: model.RoleGM,
			to: model.StatusCompleted, signature: model.SignatureGM, auditAction: model.ActionApproved},
	},
	ActionReject: {
		{from: model.StatusManagerReview, role: model.RoleManager, sameDept: true,
			to: model.StatusManagerRejected, auditAction: model.ActionRejected},
		{from: model.StatusGMReview, role: model.RoleGM,
			to: model.StatusGMRejected, auditAction: model.ActionRejected},
	},
}

// autoAdvance folds transient statuses forward. Submit lands on
// MANAGER_REVIEW ("awaiting manager"), a manager approval lands on GM_REVIEW
// ("awaiting GM").
func autoAdvance(s model.ReportStatus) model.ReportStatus {
	switch s {
	case model.StatusSubmitted:
		return model.StatusManagerReview
	case model.StatusManagerApproved:
		return model.StatusGMReview
	}
	return s
}

// ruleFor finds the transition rule matching the report's current status for
// the requested action. A nil rule with a nil error never happens: either a
// rule matches or the action is invalid from this status.
func ruleFor(action Action, status model.ReportStatus) (*rule, error) {
	for i := range transitions[action] {
		if transitions[action][i].from == status {
			return &transitions[action][i], nil
		}
	}
	return nil, fmt.Errorf("%w: cannot %s from status %s", ErrInvalidTransition, action, status)
}

// CanAct is the pure authorization predicate over actor + report + action.
// It touches no storage and has no side effects; the engine calls it inside
// the transaction, and tests exercise it directly.
//
// Submit is valid only from DRAFT and only by the creator. Approve/Reject are
// valid only from the exact review status for the actor's tier; line managers
// must match the report's department, the GM acts across departments. Edit is
// valid only while the report is still in DRAFT, and only by the creator.
func CanAct(actor *model.User, report *model.Report, action Action) error {
	if action == ActionEdit {
		if !report.Status.CanBeEdited() {
			return fmt.Errorf("%w: report is %s", ErrEditNotAllowed, report.Status)
		}
		if actor.ID != report.CreatorID {
			return fmt.Errorf("%w: only the creator may edit a draft", ErrAuthorization)
		}
		return nil
	}

	r, err := ruleFor(action, report.Status)
	if err != nil {
		return err
	}

	if r.creatorOnly {
		if actor.ID != report.CreatorID {
			return fmt.Errorf("%w: only the creator may submit this report", ErrAuthorization)
		}
		return nil
	}

	if actor.Role != r.role {
		return fmt.Errorf("%w: action %s requires role %s", ErrAuthorization, action, r.role)
	}
	if r.sameDept && actor.Department != report.Department {
		return fmt.Errorf("%w: report belongs to department %s", ErrAuthorization, report.Department)
	}
	return nil
}
