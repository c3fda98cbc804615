// Package wizard implements the contribution setup wizard as an immutable
// state value and a controller. The wizard is a client-side cursor: it gates
// advancement on completion predicates but performs no persistence itself.
package wizard

import "log/slog"

// Direction tags a selected subtype with which way the contribution flows.
type Direction string

const (
	DirectionToGive    Direction = "to_give"
	DirectionToReceive Direction = "to_receive"
)

// Step boundaries and the named semantic stops of the 14-step flow.
const (
	MinStep = 1
	MaxStep = 14

	StepTypeSelection = 1  // contribution type/category
	StepTimelineMeta  = 2  // timeline metadata
	StepSubtypes      = 3  // subtype selection
	StepCheckpoint    = 4  // persistence checkpoint
	StepInsights      = 5
	StepValuation     = 6
	StepFollowUp      = 7
	StepSmartRules    = 8
	StepRatings       = 9
	StepFiles         = 10
	StepKnots         = 11
	StepContributors  = 12
	StepUsersAdmins   = 13
	StepReview        = 14
)

// Subtype is one chosen contribution subtype with its direction.
type Subtype struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
}

// State is the full wizard state. It is a value: every mutation returns a
// new State, and the saved contribution id is a plain field rather than a
// mutable side channel.
type State struct {
	Step                int
	Direction           Direction
	SelectedSubtypes    []Subtype
	CompleteLater       bool
	SavedContributionID string
}

// NewState returns the initial wizard state: step 1, direction to_give, no
// subtypes, nothing saved.
func NewState() State {
	return State{Step: MinStep, Direction: DirectionToGive}
}

// Reset returns the wizard to its initial state.
func (s State) Reset() State {
	return NewState()
}

// WithDirection returns s with the flow direction changed.
func (s State) WithDirection(d Direction) State {
	s.Direction = d
	return s
}

// WithSubtype returns s with one more selected subtype.
func (s State) WithSubtype(name string, d Direction) State {
	subtypes := make([]Subtype, len(s.SelectedSubtypes), len(s.SelectedSubtypes)+1)
	copy(subtypes, s.SelectedSubtypes)
	s.SelectedSubtypes = append(subtypes, Subtype{Name: name, Direction: d})
	return s
}

// WithCompleteLater returns s with the step-3 escape hatch toggled.
func (s State) WithCompleteLater(v bool) State {
	s.CompleteLater = v
	return s
}

// WithSavedContribution returns s carrying the id of the contribution the
// checkpoint step persisted.
func (s State) WithSavedContribution(id string) State {
	s.SavedContributionID = id
	return s
}

// CanProceed reports whether the wizard may advance past its current step.
// Step 3 requires subtypes or the complete-later escape hatch; step 4
// requires a persisted contribution id. Configuration steps are skippable.
func (s State) CanProceed() bool {
	switch s.Step {
	case StepSubtypes:
		return len(s.SelectedSubtypes) > 0 || s.CompleteLater
	case StepCheckpoint:
		return s.SavedContributionID != ""
	default:
		return true
	}
}

// Controller advances wizard state. A blocked advance is a no-op, and the
// checkpoint case logs a warning rather than erroring.
type Controller struct {
	logger *slog.Logger
}

// NewController creates a wizard controller.
func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{logger: logger}
}

// Next advances one step, clamped to the last step. Gated steps that are not
// satisfied leave the state unchanged.
func (c *Controller) Next(s State) State {
	if s.Step >= MaxStep {
		return s
	}
	if !s.CanProceed() {
		if s.Step == StepCheckpoint {
			c.logger.Warn("wizard cannot advance past checkpoint without a saved contribution",
				slog.Int("step", s.Step))
		}
		return s
	}
	s.Step++
	return s
}

// Prev moves one step back, clamped to the first step.
func (c *Controller) Prev(s State) State {
	if s.Step > MinStep {
		s.Step--
	}
	return s
}
