package domain

import "fmt"

// Status is the lifecycle state of a Contribution.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusSetupIncomplete Status = "setup_incomplete"
	StatusReadyToReceive  Status = "ready_to_receive"
	StatusReadyToGive     Status = "ready_to_give"
	StatusNegotiating     Status = "negotiating"
	StatusActive          Status = "active"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

// statusTransitions is the directed edge set of the contribution lifecycle.
// Absence of an edge means the transition is forbidden. Terminal states keep
// an empty target list so the table stays total over the status set.
var statusTransitions = map[Status][]Status{
	StatusDraft:           {StatusSetupIncomplete, StatusReadyToReceive, StatusReadyToGive, StatusCancelled},
	StatusSetupIncomplete: {StatusReadyToReceive, StatusReadyToGive, StatusDraft, StatusCancelled},
	StatusReadyToReceive:  {StatusNegotiating, StatusActive, StatusCancelled},
	StatusReadyToGive:     {StatusNegotiating, StatusActive, StatusCancelled},
	StatusNegotiating:     {StatusActive, StatusReadyToReceive, StatusReadyToGive, StatusCancelled},
	StatusActive:          {StatusCompleted, StatusCancelled},
	StatusCompleted:       {},
	StatusCancelled:       {},
}

// Valid reports whether s is a known contribution status.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminal reports whether s has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the edge s -> target exists. Unknown
// statuses report false here; use ValidTransition when inputs are untrusted.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range statusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTransition reports whether current -> next is a legal contribution
// status transition. Unknown statuses are an input error rather than a false
// result so callers can tell a forbidden edge apart from garbage input.
// Self-transitions are never valid.
func ValidTransition(current, next Status) (bool, error) {
	if !current.Valid() {
		return false, fmt.Errorf("unknown contribution status %q", current)
	}
	if !next.Valid() {
		return false, fmt.Errorf("unknown contribution status %q", next)
	}
	return current.CanTransitionTo(next), nil
}

// AllStatuses lists every contribution status, for validation and tests.
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusSetupIncomplete,
		StatusReadyToReceive,
		StatusReadyToGive,
		StatusNegotiating,
		StatusActive,
		StatusCompleted,
		StatusCancelled,
	}
}
