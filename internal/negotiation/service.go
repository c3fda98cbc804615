// Package negotiation implements the offer/counter-offer workflow between a
// giver and a receiver over one contribution: sessions, an append-only
// proposal ledger, and a coordination message log.
package negotiation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/primetimelines/shonacoin/internal/domain"
	"github.com/primetimelines/shonacoin/internal/storage"
)

// Store is the persistence surface the negotiation service needs.
type Store interface {
	storage.ContributionStore
	storage.SessionStore
	storage.ProposalStore
	storage.MessageStore
}

// Service manages negotiation sessions, proposals, and messages.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a negotiation service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// CreateSession opens a negotiation between giver and receiver over a
// contribution. A party cannot negotiate with itself, and a contribution may
// have at most one non-terminal session at a time.
func (s *Service) CreateSession(ctx context.Context, contributionID, giverID, receiverID string, mode domain.SessionMode) (*domain.NegotiationSession, error) {
	if giverID == "" || receiverID == "" {
		return nil, domain.ErrUnauthorized("both negotiation parties must be identified")
	}
	if giverID == receiverID {
		return nil, domain.ErrValidation("giver and receiver must be different users")
	}
	if !mode.Valid() {
		return nil, domain.ErrValidation("mode must be strict or flexible")
	}

	if _, err := s.store.GetContribution(ctx, contributionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrNotFound("contribution", contributionID)
		}
		return nil, domain.ErrPersistence("load contribution", err)
	}

	open, err := s.store.HasOpenSession(ctx, contributionID)
	if err != nil {
		return nil, domain.ErrPersistence("check open sessions", err)
	}
	if open {
		return nil, domain.ErrValidation("contribution already has an open negotiation session")
	}

	sess := &domain.NegotiationSession{
		ID:             uuid.NewString(),
		ContributionID: contributionID,
		GiverUserID:    giverID,
		ReceiverUserID: receiverID,
		Mode:           mode,
		Status:         domain.SessionProposed,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, domain.ErrPersistence("create session", err)
	}

	s.logger.Info("negotiation session created",
		slog.String("session_id", sess.ID),
		slog.String("contribution_id", contributionID),
		slog.String("mode", string(mode)))
	return sess, nil
}

// ListSessions returns a contribution's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, contributionID string) ([]*domain.NegotiationSession, error) {
	sessions, err := s.store.ListSessions(ctx, contributionID)
	if err != nil {
		return nil, domain.ErrPersistence("list sessions", err)
	}
	return sessions, nil
}

// CancelSession terminates a session without agreement.
func (s *Service) CancelSession(ctx context.Context, actorID, sessionID string) (*domain.NegotiationSession, error) {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if actorID == "" {
		return nil, domain.ErrUnauthorized("no actor identity for cancel")
	}
	if sess.Status.IsTerminal() {
		return nil, domain.ErrSessionClosed(sessionID, sess.Status)
	}

	now := time.Now().UTC()
	if err := s.store.UpdateSessionStatus(ctx, sessionID, domain.SessionCancelled, now); err != nil {
		return nil, domain.ErrPersistence("cancel session", err)
	}

	s.logger.Info("negotiation session cancelled", slog.String("session_id", sessionID))
	sess.Status = domain.SessionCancelled
	sess.UpdatedAt = now
	return sess, nil
}

// SubmitProposal appends a proposal to a session's ledger. The proposal data
// is an opaque JSON payload; it must parse but is never interpreted. Strict
// sessions hold at most one open proposal at a time. The second and later
// proposals move the session from proposed to revised.
func (s *Service) SubmitProposal(ctx context.Context, sessionID, authorID string, proposalData json.RawMessage, message string) (*domain.NegotiationProposal, error) {
	if authorID == "" {
		return nil, domain.ErrUnauthorized("no author identity for proposal")
	}
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.IsTerminal() {
		return nil, domain.ErrSessionClosed(sessionID, sess.Status)
	}
	if len(proposalData) == 0 || !json.Valid(proposalData) {
		return nil, domain.ErrValidation("proposal_data must be a JSON document")
	}

	existing, err := s.store.ListProposals(ctx, sessionID)
	if err != nil {
		return nil, domain.ErrPersistence("list proposals", err)
	}
	if sess.Mode == domain.ModeStrict {
		open, err := s.store.CountOpenProposals(ctx, sessionID)
		if err != nil {
			return nil, domain.ErrPersistence("count open proposals", err)
		}
		if open > 0 {
			return nil, domain.ErrValidation("strict session already has an open proposal; accept or reject it first")
		}
	}

	p := &domain.NegotiationProposal{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		ProposedBy:   authorID,
		ProposalData: proposalData,
		Message:      message,
		Status:       domain.ProposalPending,
	}
	if err := s.store.CreateProposal(ctx, p); err != nil {
		return nil, domain.ErrPersistence("create proposal", err)
	}

	if len(existing) > 0 && sess.Status == domain.SessionProposed {
		if err := s.store.UpdateSessionStatus(ctx, sessionID, domain.SessionRevised, time.Now().UTC()); err != nil {
			s.logger.Warn("failed to mark session revised",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()))
		}
	}

	s.logger.Info("proposal submitted",
		slog.String("session_id", sessionID),
		slog.String("proposal_id", p.ID),
		slog.String("proposed_by", authorID))
	return p, nil
}

// ListProposals returns a session's ledger, newest first. Display order only:
// acceptance and rejection always target an explicit proposal id.
func (s *Service) ListProposals(ctx context.Context, sessionID string) ([]*domain.NegotiationProposal, error) {
	proposals, err := s.store.ListProposals(ctx, sessionID)
	if err != nil {
		return nil, domain.ErrPersistence("list proposals", err)
	}
	return proposals, nil
}

// AcceptProposal marks the proposal accepted and the session agreed with the
// proposal as its current proposal, atomically. This is the only successful
// terminal path for a session. Earlier pending proposals stay pending;
// superseding is an explicit, separate action.
func (s *Service) AcceptProposal(ctx context.Context, actorID, sessionID, proposalID string) (*domain.NegotiationProposal, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthorized("no actor identity for accept")
	}
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.IsTerminal() {
		return nil, domain.ErrSessionClosed(sessionID, sess.Status)
	}

	p, err := s.loadSessionProposal(ctx, sessionID, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProposalPending {
		return nil, domain.ErrValidation("only a pending proposal can be accepted")
	}

	now := time.Now().UTC()
	if err := s.store.AcceptProposal(ctx, sessionID, proposalID, now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrNotFound("proposal", proposalID)
		}
		return nil, domain.ErrPersistence("accept proposal", err)
	}

	s.logger.Info("proposal accepted",
		slog.String("session_id", sessionID),
		slog.String("proposal_id", proposalID),
		slog.String("accepted_by", actorID))
	p.Status = domain.ProposalAccepted
	return p, nil
}

// RejectProposal marks a single proposal rejected. The session stays open so
// a counter-proposal can follow; no other proposal is touched.
func (s *Service) RejectProposal(ctx context.Context, actorID, sessionID, proposalID string) (*domain.NegotiationProposal, error) {
	return s.closeProposal(ctx, actorID, sessionID, proposalID, domain.ProposalRejected)
}

// SupersedeProposal explicitly retires a pending proposal, typically after a
// newer one replaced it. Never triggered implicitly by accept.
func (s *Service) SupersedeProposal(ctx context.Context, actorID, sessionID, proposalID string) (*domain.NegotiationProposal, error) {
	return s.closeProposal(ctx, actorID, sessionID, proposalID, domain.ProposalSuperseded)
}

func (s *Service) closeProposal(ctx context.Context, actorID, sessionID, proposalID string, status domain.ProposalStatus) (*domain.NegotiationProposal, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthorized("no actor identity")
	}
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.IsTerminal() {
		return nil, domain.ErrSessionClosed(sessionID, sess.Status)
	}

	p, err := s.loadSessionProposal(ctx, sessionID, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProposalPending {
		return nil, domain.ErrValidation("only a pending proposal can change state")
	}

	if err := s.store.UpdateProposalStatus(ctx, proposalID, status); err != nil {
		return nil, domain.ErrPersistence("update proposal status", err)
	}

	s.logger.Info("proposal closed",
		slog.String("session_id", sessionID),
		slog.String("proposal_id", proposalID),
		slog.String("status", string(status)))
	p.Status = status
	return p, nil
}

// SendMessage appends to a session's coordination log. Messages flow in
// parallel with the formal ledger and are allowed on terminal sessions too.
func (s *Service) SendMessage(ctx context.Context, sessionID, senderID string, msgType domain.MessageType, content, fileURL string, metadata json.RawMessage) (*domain.NegotiationMessage, error) {
	if senderID == "" {
		return nil, domain.ErrUnauthorized("no sender identity for message")
	}
	if !msgType.Valid() {
		return nil, domain.ErrValidation("message_type must be text, call_recording, or file")
	}
	if len(metadata) > 0 && !json.Valid(metadata) {
		return nil, domain.ErrValidation("metadata must be a JSON document")
	}
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}

	m := &domain.NegotiationMessage{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		SenderUserID: senderID,
		Type:         msgType,
		Content:      content,
		FileURL:      fileURL,
		Metadata:     metadata,
	}
	if err := s.store.AppendMessage(ctx, m); err != nil {
		return nil, domain.ErrPersistence("append message", err)
	}

	return m, nil
}

// ListMessages returns a session's message log in insertion order. Readers
// re-fetch to observe new messages; this is a log, not a transport.
func (s *Service) ListMessages(ctx context.Context, sessionID string) ([]*domain.NegotiationMessage, error) {
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, domain.ErrPersistence("list messages", err)
	}
	return messages, nil
}

// GetSession loads a single session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.NegotiationSession, error) {
	return s.loadSession(ctx, sessionID)
}

func (s *Service) loadSession(ctx context.Context, sessionID string) (*domain.NegotiationSession, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrNotFound("session", sessionID)
		}
		return nil, domain.ErrPersistence("load session", err)
	}
	return sess, nil
}

func (s *Service) loadSessionProposal(ctx context.Context, sessionID, proposalID string) (*domain.NegotiationProposal, error) {
	p, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrNotFound("proposal", proposalID)
		}
		return nil, domain.ErrPersistence("load proposal", err)
	}
	if p.SessionID != sessionID {
		return nil, domain.ErrValidation("proposal does not belong to this session")
	}
	return p, nil
}
