package negotiation

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/primetimelines/shonacoin/internal/domain"
	"github.com/primetimelines/shonacoin/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store, string) {
	t.Helper()
	store := memory.New()
	c := &domain.Contribution{ID: "c1", OwnerID: "giver", Status: domain.StatusReadyToGive}
	if err := store.CreateContribution(context.Background(), c); err != nil {
		t.Fatalf("seed contribution: %v", err)
	}
	return NewService(store, nil), store, c.ID
}

func terms(v int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"valuation":%d}`, v))
}

func TestCreateSessionRejectsSelfNegotiation(t *testing.T) {
	svc, _, cid := newTestService(t)

	_, err := svc.CreateSession(context.Background(), cid, "giver", "giver", domain.ModeFlexible)
	if domain.TypeOf(err) != domain.ErrorTypeValidation {
		t.Errorf("error type = %s, want validation", domain.TypeOf(err))
	}
}

func TestCreateSessionRejectsUnknownMode(t *testing.T) {
	svc, _, cid := newTestService(t)

	_, err := svc.CreateSession(context.Background(), cid, "giver", "receiver", "binary")
	if domain.TypeOf(err) != domain.ErrorTypeValidation {
		t.Errorf("error type = %s, want validation", domain.TypeOf(err))
	}
}

func TestCreateSessionRejectsMissingContribution(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateSession(context.Background(), "missing", "giver", "receiver", domain.ModeFlexible)
	if domain.TypeOf(err) != domain.ErrorTypeNotFound {
		t.Errorf("error type = %s, want not_found", domain.TypeOf(err))
	}
}

func TestCreateSessionEnforcesSingleOpenSession(t *testing.T) {
	svc, _, cid := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeFlexible)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if _, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeFlexible); domain.TypeOf(err) != domain.ErrorTypeValidation {
		t.Fatalf("second open session: error type = %s, want validation", domain.TypeOf(err))
	}

	// After the first session terminates, re-negotiation is allowed.
	if _, err := svc.CancelSession(ctx, "giver", first.ID); err != nil {
		t.Fatalf("CancelSession() error = %v", err)
	}
	if _, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeStrict); err != nil {
		t.Errorf("re-negotiation after cancel: error = %v", err)
	}
}

func TestFlexibleNegotiationScenario(t *testing.T) {
	svc, _, cid := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeFlexible)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if sess.Status != domain.SessionProposed {
		t.Fatalf("initial status = %s, want proposed", sess.Status)
	}

	p1, err := svc.SubmitProposal(ctx, sess.ID, "giver", terms(100), "opening offer")
	if err != nil {
		t.Fatalf("SubmitProposal(p1) error = %v", err)
	}
	p2, err := svc.SubmitProposal(ctx, sess.ID, "receiver", terms(120), "counter")
	if err != nil {
		t.Fatalf("SubmitProposal(p2) error = %v", err)
	}

	// A counter-proposal moves the session to revised.
	got, err := svc.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Status != domain.SessionRevised {
		t.Errorf("status after counter = %s, want revised", got.Status)
	}

	accepted, err := svc.AcceptProposal(ctx, "giver", sess.ID, p2.ID)
	if err != nil {
		t.Fatalf("AcceptProposal() error = %v", err)
	}
	if accepted.Status != domain.ProposalAccepted {
		t.Errorf("accepted status = %s, want accepted", accepted.Status)
	}

	got, err = svc.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Status != domain.SessionAgreed {
		t.Errorf("session status = %s, want agreed", got.Status)
	}
	if got.CurrentProposalID != p2.ID {
		t.Errorf("CurrentProposalID = %s, want %s", got.CurrentProposalID, p2.ID)
	}

	// Accepting p2 does not supersede p1: it stays pending.
	proposals, err := svc.ListProposals(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ListProposals() error = %v", err)
	}
	for _, p := range proposals {
		if p.ID == p1.ID && p.Status != domain.ProposalPending {
			t.Errorf("p1 status = %s, want pending", p.Status)
		}
	}

	// The agreed session accepts no further ledger actions.
	if _, err := svc.SubmitProposal(ctx, sess.ID, "giver", terms(90), ""); domain.TypeOf(err) != domain.ErrorTypeSessionClosed {
		t.Errorf("submit on agreed session: error type = %s, want session_closed", domain.TypeOf(err))
	}
}

func TestRejectLeavesSessionOpenAndOthersUntouched(t *testing.T) {
	svc, _, cid := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeFlexible)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	p1, err := svc.SubmitProposal(ctx, sess.ID, "giver", terms(100), "")
	if err != nil {
		t.Fatalf("SubmitProposal(p1) error = %v", err)
	}
	p2, err := svc.SubmitProposal(ctx, sess.ID, "receiver", terms(110), "")
	if err != nil {
		t.Fatalf("SubmitProposal(p2) error = %v", err)
	}

	if _, err := svc.RejectProposal(ctx, "receiver", sess.ID, p1.ID); err != nil {
		t.Fatalf("RejectProposal() error = %v", err)
	}

	proposals, err := svc.ListProposals(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ListProposals() error = %v", err)
	}
	for _, p := range proposals {
		switch p.ID {
		case p1.ID:
			if p.Status != domain.ProposalRejected {
				t.Errorf("p1 status = %s, want rejected", p.Status)
			}
		case p2.ID:
			if p.Status != domain.ProposalPending {
				t.Errorf("p2 status = %s, want pending", p.Status)
			}
		}
	}

	got, err := svc.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Status.IsTerminal() {
		t.Errorf("session became terminal after reject: %s", got.Status)
	}

	// Further proposals remain possible.
	if _, err := svc.SubmitProposal(ctx, sess.ID, "giver", terms(105), ""); err != nil {
		t.Errorf("counter after reject: error = %v", err)
	}
}

func TestStrictModeAllowsOneOpenProposal(t *testing.T) {
	svc, _, cid := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeStrict)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	p1, err := svc.SubmitProposal(ctx, sess.ID, "giver", terms(100), "take it or leave it")
	if err != nil {
		t.Fatalf("SubmitProposal() error = %v", err)
	}

	if _, err := svc.SubmitProposal(ctx, sess.ID, "receiver", terms(90), ""); domain.TypeOf(err) != domain.ErrorTypeValidation {
		t.Fatalf("second open proposal in strict mode: error type = %s, want validation", domain.TypeOf(err))
	}

	// Once the open proposal is rejected a fresh one may follow.
	if _, err := svc.RejectProposal(ctx, "receiver", sess.ID, p1.ID); err != nil {
		t.Fatalf("RejectProposal() error = %v", err)
	}
	if _, err := svc.SubmitProposal(ctx, sess.ID, "giver", terms(95), ""); err != nil {
		t.Errorf("proposal after reject in strict mode: error = %v", err)
	}
}

func TestSupersedeIsExplicitAndPendingOnly(t *testing.T) {
	svc, _, cid := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeFlexible)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	p1, err := svc.SubmitProposal(ctx, sess.ID, "giver", terms(100), "")
	if err != nil {
		t.Fatalf("SubmitProposal() error = %v", err)
	}

	superseded, err := svc.SupersedeProposal(ctx, "giver", sess.ID, p1.ID)
	if err != nil {
		t.Fatalf("SupersedeProposal() error = %v", err)
	}
	if superseded.Status != domain.ProposalSuperseded {
		t.Errorf("status = %s, want superseded", superseded.Status)
	}

	// Terminal proposals cannot change state again.
	if _, err := svc.RejectProposal(ctx, "giver", sess.ID, p1.ID); domain.TypeOf(err) != domain.ErrorTypeValidation {
		t.Errorf("reject superseded: error type = %s, want validation", domain.TypeOf(err))
	}
}

func TestSubmitProposalValidation(t *testing.T) {
	svc, _, cid := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeFlexible)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if _, err := svc.SubmitProposal(ctx, sess.ID, "", terms(1), ""); domain.TypeOf(err) != domain.ErrorTypeUnauthorized {
		t.Errorf("anonymous author: error type = %s, want unauthorized", domain.TypeOf(err))
	}
	if _, err := svc.SubmitProposal(ctx, sess.ID, "giver", json.RawMessage(`{not json`), ""); domain.TypeOf(err) != domain.ErrorTypeValidation {
		t.Errorf("bad payload: error type = %s, want validation", domain.TypeOf(err))
	}
	if _, err := svc.SubmitProposal(ctx, "missing", "giver", terms(1), ""); domain.TypeOf(err) != domain.ErrorTypeNotFound {
		t.Errorf("missing session: error type = %s, want not_found", domain.TypeOf(err))
	}
}

func TestAcceptProposalFromWrongSessionRejected(t *testing.T) {
	svc, store, cid := newTestService(t)
	ctx := context.Background()

	c2 := &domain.Contribution{ID: "c2", OwnerID: "giver", Status: domain.StatusReadyToGive}
	if err := store.CreateContribution(ctx, c2); err != nil {
		t.Fatalf("seed contribution: %v", err)
	}

	s1, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeFlexible)
	if err != nil {
		t.Fatalf("CreateSession(s1) error = %v", err)
	}
	s2, err := svc.CreateSession(ctx, "c2", "giver", "receiver", domain.ModeFlexible)
	if err != nil {
		t.Fatalf("CreateSession(s2) error = %v", err)
	}

	p, err := svc.SubmitProposal(ctx, s1.ID, "giver", terms(100), "")
	if err != nil {
		t.Fatalf("SubmitProposal() error = %v", err)
	}

	if _, err := svc.AcceptProposal(ctx, "receiver", s2.ID, p.ID); domain.TypeOf(err) != domain.ErrorTypeValidation {
		t.Errorf("cross-session accept: error type = %s, want validation", domain.TypeOf(err))
	}
}

func TestMessagesOrderedAndOpenToTerminalSessions(t *testing.T) {
	svc, _, cid := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeFlexible)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	senders := []string{"giver", "receiver", "giver", "receiver"}
	for i, sender := range senders {
		if _, err := svc.SendMessage(ctx, sess.ID, sender, domain.MessageText, fmt.Sprintf("msg %d", i), "", nil); err != nil {
			t.Fatalf("SendMessage(%d) error = %v", i, err)
		}
	}

	msgs, err := svc.ListMessages(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("len = %d, want 4", len(msgs))
	}
	for i, m := range msgs {
		if want := fmt.Sprintf("msg %d", i); m.Content != want {
			t.Errorf("msgs[%d].Content = %q, want %q", i, m.Content, want)
		}
	}

	// Coordination continues after the session terminates.
	if _, err := svc.CancelSession(ctx, "giver", sess.ID); err != nil {
		t.Fatalf("CancelSession() error = %v", err)
	}
	if _, err := svc.SendMessage(ctx, sess.ID, "receiver", domain.MessageFile, "", "https://files.example/contract.pdf", nil); err != nil {
		t.Errorf("message on terminal session: error = %v", err)
	}

	if _, err := svc.SendMessage(ctx, sess.ID, "", domain.MessageText, "anon", "", nil); domain.TypeOf(err) != domain.ErrorTypeUnauthorized {
		t.Errorf("anonymous sender: error type = %s, want unauthorized", domain.TypeOf(err))
	}
	if _, err := svc.SendMessage(ctx, sess.ID, "giver", "carrier_pigeon", "x", "", nil); domain.TypeOf(err) != domain.ErrorTypeValidation {
		t.Errorf("unknown type: error type = %s, want validation", domain.TypeOf(err))
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	svc, _, cid := newTestService(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		sess, err := svc.CreateSession(ctx, cid, "giver", "receiver", domain.ModeFlexible)
		if err != nil {
			t.Fatalf("CreateSession(%d) error = %v", i, err)
		}
		ids = append(ids, sess.ID)
		if _, err := svc.CancelSession(ctx, "giver", sess.ID); err != nil {
			t.Fatalf("CancelSession(%d) error = %v", i, err)
		}
	}

	sessions, err := svc.ListSessions(ctx, cid)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("len = %d, want 3", len(sessions))
	}
	if sessions[0].ID != ids[2] || sessions[2].ID != ids[0] {
		t.Error("sessions not ordered newest first")
	}
}
