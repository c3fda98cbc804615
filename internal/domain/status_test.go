package domain

import "testing"

func TestValidTransition_AllowedEdges(t *testing.T) {
	allowed := []struct {
		from, to Status
	}{
		{StatusDraft, StatusSetupIncomplete},
		{StatusDraft, StatusReadyToReceive},
		{StatusDraft, StatusReadyToGive},
		{StatusDraft, StatusCancelled},
		{StatusSetupIncomplete, StatusReadyToReceive},
		{StatusSetupIncomplete, StatusReadyToGive},
		{StatusSetupIncomplete, StatusDraft},
		{StatusSetupIncomplete, StatusCancelled},
		{StatusReadyToReceive, StatusNegotiating},
		{StatusReadyToReceive, StatusActive},
		{StatusReadyToReceive, StatusCancelled},
		{StatusReadyToGive, StatusNegotiating},
		{StatusReadyToGive, StatusActive},
		{StatusReadyToGive, StatusCancelled},
		{StatusNegotiating, StatusActive},
		{StatusNegotiating, StatusReadyToReceive},
		{StatusNegotiating, StatusReadyToGive},
		{StatusNegotiating, StatusCancelled},
		{StatusActive, StatusCompleted},
		{StatusActive, StatusCancelled},
	}

	for _, tc := range allowed {
		ok, err := ValidTransition(tc.from, tc.to)
		if err != nil {
			t.Errorf("ValidTransition(%s, %s) error = %v", tc.from, tc.to, err)
		}
		if !ok {
			t.Errorf("ValidTransition(%s, %s) = false, want true", tc.from, tc.to)
		}
	}

	// Everything not in the allowed set, including self-transitions, is
	// forbidden. Walk the full cross product and check against the list.
	isAllowed := func(from, to Status) bool {
		for _, tc := range allowed {
			if tc.from == from && tc.to == to {
				return true
			}
		}
		return false
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			ok, err := ValidTransition(from, to)
			if err != nil {
				t.Errorf("ValidTransition(%s, %s) error = %v", from, to, err)
				continue
			}
			if ok != isAllowed(from, to) {
				t.Errorf("ValidTransition(%s, %s) = %v, want %v", from, to, ok, isAllowed(from, to))
			}
		}
	}
}

func TestValidTransition_SelfTransitionsForbidden(t *testing.T) {
	for _, s := range AllStatuses() {
		ok, err := ValidTransition(s, s)
		if err != nil {
			t.Fatalf("ValidTransition(%s, %s) error = %v", s, s, err)
		}
		if ok {
			t.Errorf("ValidTransition(%s, %s) = true, want false", s, s)
		}
	}
}

func TestValidTransition_UnknownStatusIsError(t *testing.T) {
	if _, err := ValidTransition("bogus", StatusActive); err == nil {
		t.Error("ValidTransition(bogus, active) expected error, got nil")
	}
	if _, err := ValidTransition(StatusActive, "bogus"); err == nil {
		t.Error("ValidTransition(active, bogus) expected error, got nil")
	}
	if _, err := ValidTransition("", ""); err == nil {
		t.Error("ValidTransition(empty, empty) expected error, got nil")
	}
}

func TestStatusIsTerminal(t *testing.T) {
	for _, s := range AllStatuses() {
		want := s == StatusCompleted || s == StatusCancelled
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
		}
	}
}

func TestSessionStatusIsTerminal(t *testing.T) {
	terminal := map[SessionStatus]bool{
		SessionProposed:  false,
		SessionRevised:   false,
		SessionAgreed:    true,
		SessionRejected:  true,
		SessionCancelled: true,
	}
	for s, want := range terminal {
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
		}
	}
}
