// Package storage defines the persistence interfaces for the contribution
// backend. Implementations live in the sqldb (SQLite/Postgres via sqlx) and
// memory (tests) subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/primetimelines/shonacoin/internal/domain"
)

// ErrNotFound is returned by stores when a referenced row is absent. The
// service layer maps it to the domain not-found error with entity context.
var ErrNotFound = errors.New("not found")

// ContributionStore persists contribution records.
type ContributionStore interface {
	CreateContribution(ctx context.Context, c *domain.Contribution) error
	GetContribution(ctx context.Context, id string) (*domain.Contribution, error)

	// UpdateContributionStatus performs a conditional update: the new status
	// and timestamp are written only if the stored status still equals
	// expected. It reports whether a row was updated, so callers can
	// distinguish a lost race from a missing row by re-reading.
	UpdateContributionStatus(ctx context.Context, id string, expected, next domain.Status, at time.Time) (bool, error)
}

// SessionStore persists negotiation sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.NegotiationSession) error
	GetSession(ctx context.Context, id string) (*domain.NegotiationSession, error)

	// ListSessions returns every session for a contribution, newest first.
	ListSessions(ctx context.Context, contributionID string) ([]*domain.NegotiationSession, error)

	// UpdateSessionStatus rewrites the session status and timestamp.
	UpdateSessionStatus(ctx context.Context, id string, status domain.SessionStatus, at time.Time) error

	// HasOpenSession reports whether the contribution has a session in a
	// non-terminal status.
	HasOpenSession(ctx context.Context, contributionID string) (bool, error)
}

// ProposalStore persists the append-only proposal ledger.
type ProposalStore interface {
	CreateProposal(ctx context.Context, p *domain.NegotiationProposal) error
	GetProposal(ctx context.Context, id string) (*domain.NegotiationProposal, error)

	// ListProposals returns every proposal in a session, newest first.
	ListProposals(ctx context.Context, sessionID string) ([]*domain.NegotiationProposal, error)

	// CountOpenProposals counts proposals still pending in a session.
	CountOpenProposals(ctx context.Context, sessionID string) (int, error)

	// UpdateProposalStatus rewrites a single proposal's status. It never
	// touches other proposals.
	UpdateProposalStatus(ctx context.Context, id string, status domain.ProposalStatus) error

	// AcceptProposal atomically marks the proposal accepted, the session
	// agreed, and records the proposal as the session's current proposal.
	// Either all three writes commit or none do.
	AcceptProposal(ctx context.Context, sessionID, proposalID string, at time.Time) error
}

// MessageStore persists the append-only negotiation message log.
type MessageStore interface {
	AppendMessage(ctx context.Context, m *domain.NegotiationMessage) error

	// ListMessages returns every message in a session in insertion order
	// (oldest first).
	ListMessages(ctx context.Context, sessionID string) ([]*domain.NegotiationMessage, error)
}

// UserStore resolves stable user identities for the auth layer.
type UserStore interface {
	// GetOrCreateUserByEmail returns the user id for an email address,
	// creating the user on first sight.
	GetOrCreateUserByEmail(ctx context.Context, email string) (string, error)
}

// OTPStore persists hashed one-time codes for the email login flow.
type OTPStore interface {
	// SaveOTP stores a hashed code for an email, replacing any previous
	// outstanding code.
	SaveOTP(ctx context.Context, email, codeHash string, expiresAt time.Time) error

	// ConsumeOTP atomically checks and deletes the code for an email. It
	// reports true only when the hash matches and the code has not expired;
	// a consumed code can never verify twice.
	ConsumeOTP(ctx context.Context, email, codeHash string, now time.Time) (bool, error)
}

// Store is the full persistence surface the service wires together.
type Store interface {
	ContributionStore
	SessionStore
	ProposalStore
	MessageStore
	UserStore
	OTPStore

	Close() error
}
