package wizard

import "testing"

func TestCanProceedStepThreeGate(t *testing.T) {
	s := NewState()
	s.Step = StepSubtypes

	if s.CanProceed() {
		t.Error("step 3 with no subtypes and no complete-later should be blocked")
	}

	withSubtype := s.WithSubtype("financial", DirectionToGive)
	if !withSubtype.CanProceed() {
		t.Error("step 3 with a subtype should proceed")
	}

	withEscape := s.WithCompleteLater(true)
	if !withEscape.CanProceed() {
		t.Error("step 3 with complete-later should proceed")
	}
}

func TestCheckpointRequiresSavedContribution(t *testing.T) {
	c := NewController(nil)

	s := NewState()
	s.Step = StepCheckpoint

	// Advancing without a persisted contribution is a no-op.
	if got := c.Next(s); got.Step != StepCheckpoint {
		t.Errorf("Step = %d, want %d (blocked)", got.Step, StepCheckpoint)
	}

	saved := s.WithSavedContribution("c1")
	if got := c.Next(saved); got.Step != StepCheckpoint+1 {
		t.Errorf("Step = %d, want %d", got.Step, StepCheckpoint+1)
	}
}

func TestNextClampsAtLastStep(t *testing.T) {
	c := NewController(nil)

	s := NewState()
	s.Step = MaxStep
	if got := c.Next(s); got.Step != MaxStep {
		t.Errorf("Step = %d, want %d", got.Step, MaxStep)
	}
}

func TestPrevClampsAtFirstStep(t *testing.T) {
	c := NewController(nil)

	s := NewState()
	if got := c.Prev(s); got.Step != MinStep {
		t.Errorf("Step = %d, want %d", got.Step, MinStep)
	}
}

func TestConfigurationStepsAreSkippable(t *testing.T) {
	c := NewController(nil)

	s := NewState().WithSavedContribution("c1").WithSubtype("marketing", DirectionToReceive)
	for s.Step < MaxStep {
		next := c.Next(s)
		if next.Step != s.Step+1 {
			t.Fatalf("stuck at step %d", s.Step)
		}
		s = next
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	s := NewState().
		WithDirection(DirectionToReceive).
		WithSubtype("asset", DirectionToReceive).
		WithCompleteLater(true).
		WithSavedContribution("c9")
	s.Step = StepRatings

	got := s.Reset()
	if got.Step != MinStep {
		t.Errorf("Step = %d, want %d", got.Step, MinStep)
	}
	if got.Direction != DirectionToGive {
		t.Errorf("Direction = %s, want to_give", got.Direction)
	}
	if len(got.SelectedSubtypes) != 0 {
		t.Errorf("SelectedSubtypes = %v, want empty", got.SelectedSubtypes)
	}
	if got.CompleteLater || got.SavedContributionID != "" {
		t.Error("escape hatch and saved id should reset")
	}
}

func TestWithSubtypeDoesNotMutateOriginal(t *testing.T) {
	base := NewState().WithSubtype("financial", DirectionToGive)
	derived := base.WithSubtype("marketing", DirectionToReceive)

	if len(base.SelectedSubtypes) != 1 {
		t.Errorf("base mutated: %v", base.SelectedSubtypes)
	}
	if len(derived.SelectedSubtypes) != 2 {
		t.Errorf("derived = %v, want 2 subtypes", derived.SelectedSubtypes)
	}
}
