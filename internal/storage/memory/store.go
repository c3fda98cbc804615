// Package memory provides an in-memory storage.Store used by unit tests and
// by the server in storage "memory" mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/primetimelines/shonacoin/internal/domain"
	"github.com/primetimelines/shonacoin/internal/storage"
)

// Store is an in-memory implementation of storage.Store. Slices preserve
// insertion order; list methods apply the interface's ordering contract.
type Store struct {
	mu            sync.RWMutex
	contributions map[string]*domain.Contribution
	sessions      []*domain.NegotiationSession
	proposals     []*domain.NegotiationProposal
	messages      []*domain.NegotiationMessage
	usersByEmail  map[string]string
	otps          map[string]otpEntry
}

type otpEntry struct {
	codeHash  string
	expiresAt time.Time
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		contributions: make(map[string]*domain.Contribution),
		usersByEmail:  make(map[string]string),
		otps:          make(map[string]otpEntry),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateContribution(ctx context.Context, c *domain.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	clone := *c
	s.contributions[c.ID] = &clone
	return nil
}

func (s *Store) GetContribution(ctx context.Context, id string) (*domain.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contributions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *Store) UpdateContributionStatus(ctx context.Context, id string, expected, next domain.Status, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contributions[id]
	if !ok || c.Status != expected {
		return false, nil
	}
	c.Status = next
	c.UpdatedAt = at
	return true, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *domain.NegotiationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	clone := *sess
	s.sessions = append(s.sessions, &clone)
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.NegotiationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.ID == id {
			clone := *sess
			return &clone, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListSessions(ctx context.Context, contributionID string) ([]*domain.NegotiationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.NegotiationSession{}
	for i := len(s.sessions) - 1; i >= 0; i-- {
		if s.sessions[i].ContributionID == contributionID {
			clone := *s.sessions[i]
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id string, status domain.SessionStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.ID == id {
			sess.Status = status
			sess.UpdatedAt = at
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) HasOpenSession(ctx context.Context, contributionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.ContributionID == contributionID && !sess.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateProposal(ctx context.Context, p *domain.NegotiationProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.CreatedAt = time.Now().UTC()
	clone := *p
	s.proposals = append(s.proposals, &clone)
	return nil
}

func (s *Store) GetProposal(ctx context.Context, id string) (*domain.NegotiationProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.proposals {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListProposals(ctx context.Context, sessionID string) ([]*domain.NegotiationProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.NegotiationProposal{}
	for i := len(s.proposals) - 1; i >= 0; i-- {
		if s.proposals[i].SessionID == sessionID {
			clone := *s.proposals[i]
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *Store) CountOpenProposals(ctx context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.proposals {
		if p.SessionID == sessionID && p.Status == domain.ProposalPending {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpdateProposalStatus(ctx context.Context, id string, status domain.ProposalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.proposals {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) AcceptProposal(ctx context.Context, sessionID, proposalID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var proposal *domain.NegotiationProposal
	for _, p := range s.proposals {
		if p.ID == proposalID && p.SessionID == sessionID {
			proposal = p
			break
		}
	}
	if proposal == nil {
		return storage.ErrNotFound
	}

	for _, sess := range s.sessions {
		if sess.ID == sessionID {
			proposal.Status = domain.ProposalAccepted
			sess.Status = domain.SessionAgreed
			sess.CurrentProposalID = proposalID
			sess.UpdatedAt = at
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) AppendMessage(ctx context.Context, m *domain.NegotiationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.CreatedAt = time.Now().UTC()
	clone := *m
	s.messages = append(s.messages, &clone)
	return nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]*domain.NegotiationMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.NegotiationMessage{}
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			clone := *m
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *Store) GetOrCreateUserByEmail(ctx context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.usersByEmail[email]; ok {
		return id, nil
	}
	id := uuid.NewString()
	s.usersByEmail[email] = id
	return id, nil
}

func (s *Store) SaveOTP(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.otps[email] = otpEntry{codeHash: codeHash, expiresAt: expiresAt}
	return nil
}

func (s *Store) ConsumeOTP(ctx context.Context, email, codeHash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.otps[email]
	if !ok || entry.codeHash != codeHash || !entry.expiresAt.After(now) {
		return false, nil
	}
	delete(s.otps, email)
	return true, nil
}
