package workflow

import "errors"

// Typed errors surfaced by the workflow engine. The HTTP layer maps these to
// status codes; the engine never returns an untyped failure for a rule breach.
var (
	// ErrNotFound is returned when the referenced report or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when the requested action is not valid
	// from the report's current status. Callers must not retry blindly: the
	// state has diverged from their assumption.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrAuthorization is returned when the actor lacks the role or department
	// permission for the action. Never retried.
	ErrAuthorization = errors.New("not authorized")

	// ErrEditNotAllowed is returned when a content mutation is attempted
	// outside DRAFT status.
	ErrEditNotAllowed = errors.New("report can no longer be edited")

	// ErrConcurrencyConflict is returned when a version-guarded write lost a
	// race. The caller may reload and retry once; the engine does not.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrValidation is returned for malformed input (e.g. empty rejection
	// reason) before any storage write is attempted.
	ErrValidation = errors.New("validation failed")
)
