package domain

import (
	"encoding/json"
	"time"
)

// Contribution is a tracked give/receive record on a timeline. Only the
// fields the lifecycle core needs are modelled here; presentation data lives
// with the clients.
type Contribution struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_user_id" db:"owner_user_id"`
	Title     string    `json:"title,omitempty" db:"title"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SessionMode selects the negotiation protocol for a session.
type SessionMode string

const (
	// ModeStrict fixes the opening terms: the counterparty may only accept
	// or reject, no counter-proposals.
	ModeStrict SessionMode = "strict"

	// ModeFlexible allows iterative counter-proposals from either party.
	ModeFlexible SessionMode = "flexible"
)

// Valid reports whether m is a known session mode.
func (m SessionMode) Valid() bool {
	return m == ModeStrict || m == ModeFlexible
}

// SessionStatus is the lifecycle state of a negotiation session.
type SessionStatus string

const (
	SessionProposed  SessionStatus = "proposed"
	SessionRevised   SessionStatus = "revised"
	SessionAgreed    SessionStatus = "agreed"
	SessionRejected  SessionStatus = "rejected"
	SessionCancelled SessionStatus = "cancelled"
)

// IsTerminal reports whether the session can no longer change.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionAgreed || s == SessionRejected || s == SessionCancelled
}

// NegotiationSession pairs a giver and a receiver over one contribution.
// CurrentProposalID is set only when the session reaches agreed.
type NegotiationSession struct {
	ID                string        `json:"id" db:"id"`
	ContributionID    string        `json:"contribution_id" db:"contribution_id"`
	GiverUserID       string        `json:"giver_user_id" db:"giver_user_id"`
	ReceiverUserID    string        `json:"receiver_user_id" db:"receiver_user_id"`
	Mode              SessionMode   `json:"mode" db:"mode"`
	Status            SessionStatus `json:"status" db:"status"`
	CurrentProposalID string        `json:"current_proposal_id,omitempty" db:"current_proposal_id"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// ProposalStatus is the lifecycle state of a single proposal.
type ProposalStatus string

const (
	ProposalPending    ProposalStatus = "pending"
	ProposalAccepted   ProposalStatus = "accepted"
	ProposalRejected   ProposalStatus = "rejected"
	ProposalSuperseded ProposalStatus = "superseded"
)

// IsTerminal reports whether the proposal can no longer change.
func (s ProposalStatus) IsTerminal() bool {
	return s != ProposalPending
}

// NegotiationProposal is one entry in a session's append-only proposal
// ledger. ProposalData is an opaque terms payload (valuation, follow-up,
// rules, ratings, files, knots) that the core stores and returns without
// interpreting. It is immutable once created.
type NegotiationProposal struct {
	ID           string          `json:"id" db:"id"`
	SessionID    string          `json:"session_id" db:"session_id"`
	ProposedBy   string          `json:"proposed_by" db:"proposed_by"`
	ProposalData json.RawMessage `json:"proposal_data" db:"proposal_data"`
	Message      string          `json:"message,omitempty" db:"message"`
	Status       ProposalStatus  `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// MessageType classifies a negotiation message.
type MessageType string

const (
	MessageText          MessageType = "text"
	MessageCallRecording MessageType = "call_recording"
	MessageFile          MessageType = "file"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	return t == MessageText || t == MessageCallRecording || t == MessageFile
}

// NegotiationMessage is one entry in a session's append-only message log,
// used for human coordination alongside the formal proposal ledger. Messages
// are never mutated or deleted.
type NegotiationMessage struct {
	ID           string          `json:"id" db:"id"`
	SessionID    string          `json:"session_id" db:"session_id"`
	SenderUserID string          `json:"sender_user_id" db:"sender_user_id"`
	Type         MessageType     `json:"message_type" db:"message_type"`
	Content      string          `json:"content,omitempty" db:"content"`
	FileURL      string          `json:"file_url,omitempty" db:"file_url"`
	Metadata     json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
