package workflow

import "github.com/google/uuid"

// RecipientSelector names a pool of users to notify; the dispatcher resolves
// it to concrete recipients so the engine stays ignorant of user storage.
type RecipientSelector struct {
	// Kind is one of SelectorCreator, SelectorDeptManagers, SelectorGMs.
	Kind string
	// Department is set for SelectorDeptManagers.
	Department string
	// UserID is set for SelectorCreator.
	UserID uuid.UUID
}

const (
	SelectorCreator      = "creator"
	SelectorDeptManagers = "dept_managers"
	SelectorGMs          = "gms"
)

// Event is one workflow notification, emitted after a transition commits.
type Event struct {
	Type        string // model.EventReport* constants
	ReportID    uuid.UUID
	ReportTitle string
	ActorID     uuid.UUID
	Message     string
	Recipients  []RecipientSelector
}

// Dispatcher receives events fire-and-forget. Implementations must never
// block the caller for channel delivery and must never return an error into
// the transition path.
type Dispatcher interface {
	Enqueue(event Event)
}
