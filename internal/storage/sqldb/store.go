// Package sqldb implements the storage interfaces over SQLite or Postgres
// using sqlx and the dialect abstraction.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/primetimelines/shonacoin/internal/domain"
	"github.com/primetimelines/shonacoin/internal/storage"
	"github.com/primetimelines/shonacoin/internal/storage/dialect"
)

// Store is the SQL implementation of storage.Store.
type Store struct {
	db      *sqlx.DB
	dialect dialect.Dialect
}

var _ storage.Store = (*Store)(nil)

// Config holds database connection configuration.
type Config struct {
	Driver string // sqlite or postgres
	DSN    string // path or connection string
}

// New opens the database, runs dialect init statements, and bootstraps the
// schema.
func New(cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, stmt := range d.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init statement: %w", err)
		}
	}

	s := &Store{db: db, dialect: d}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// NewSQLite opens a SQLite-backed store at the given path.
func NewSQLite(path string) (*Store, error) {
	return New(Config{Driver: "sqlite", DSN: path})
}

func (s *Store) initSchema() error {
	ts := s.dialect.TimestampType()
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS contributions (
id TEXT PRIMARY KEY,
owner_user_id TEXT NOT NULL,
title TEXT NOT NULL DEFAULT '',
status TEXT NOT NULL,
created_at %s NOT NULL,
updated_at %s NOT NULL
)`, ts, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS negotiation_sessions (
id TEXT PRIMARY KEY,
contribution_id TEXT NOT NULL,
giver_user_id TEXT NOT NULL,
receiver_user_id TEXT NOT NULL,
mode TEXT NOT NULL,
status TEXT NOT NULL,
current_proposal_id TEXT NOT NULL DEFAULT '',
created_at %s NOT NULL,
updated_at %s NOT NULL,
FOREIGN KEY (contribution_id) REFERENCES contributions(id)
)`, ts, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS negotiation_proposals (
id TEXT PRIMARY KEY,
session_id TEXT NOT NULL,
proposed_by TEXT NOT NULL,
proposal_data TEXT NOT NULL,
message TEXT NOT NULL DEFAULT '',
status TEXT NOT NULL,
created_at %s NOT NULL,
FOREIGN KEY (session_id) REFERENCES negotiation_sessions(id)
)`, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS negotiation_messages (
id TEXT PRIMARY KEY,
session_id TEXT NOT NULL,
sender_user_id TEXT NOT NULL,
message_type TEXT NOT NULL,
content TEXT NOT NULL DEFAULT '',
file_url TEXT NOT NULL DEFAULT '',
metadata TEXT,
created_at %s NOT NULL,
FOREIGN KEY (session_id) REFERENCES negotiation_sessions(id)
)`, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
id TEXT PRIMARY KEY,
email TEXT NOT NULL UNIQUE,
created_at %s NOT NULL
)`, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS otp_codes (
email TEXT PRIMARY KEY,
code_hash TEXT NOT NULL,
expires_at %s NOT NULL,
created_at %s NOT NULL
)`, ts, ts),
		`CREATE INDEX IF NOT EXISTS idx_sessions_contribution ON negotiation_sessions(contribution_id)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_session ON negotiation_proposals(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON negotiation_messages(session_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement: %w", err)
		}
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) rebind(query string) string {
	return s.dialect.Rebind(query)
}

// --- contributions ---

func (s *Store) CreateContribution(ctx context.Context, c *domain.Contribution) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := s.rebind(`INSERT INTO contributions (id, owner_user_id, title, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.Title, c.Status, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("insert contribution: %w", err)
	}
	return nil
}

func (s *Store) GetContribution(ctx context.Context, id string) (*domain.Contribution, error) {
	var c domain.Contribution
	query := s.rebind(`SELECT id, owner_user_id, title, status, created_at, updated_at
FROM contributions WHERE id = ?`)
	if err := s.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select contribution: %w", err)
	}
	return &c, nil
}

func (s *Store) UpdateContributionStatus(ctx context.Context, id string, expected, next domain.Status, at time.Time) (bool, error) {
	query := s.rebind(`UPDATE contributions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`)
	res, err := s.db.ExecContext(ctx, query, next, at, id, expected)
	if err != nil {
		return false, fmt.Errorf("update contribution status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// --- sessions ---

func (s *Store) CreateSession(ctx context.Context, sess *domain.NegotiationSession) error {
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	query := s.rebind(`INSERT INTO negotiation_sessions
(id, contribution_id, giver_user_id, receiver_user_id, mode, status, current_proposal_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.ContributionID, sess.GiverUserID, sess.ReceiverUserID,
		sess.Mode, sess.Status, sess.CurrentProposalID, sess.CreatedAt, sess.UpdatedAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.NegotiationSession, error) {
	var sess domain.NegotiationSession
	query := s.rebind(`SELECT id, contribution_id, giver_user_id, receiver_user_id, mode, status, current_proposal_id, created_at, updated_at
FROM negotiation_sessions WHERE id = ?`)
	if err := s.db.GetContext(ctx, &sess, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &sess, nil
}

func (s *Store) ListSessions(ctx context.Context, contributionID string) ([]*domain.NegotiationSession, error) {
	sessions := []*domain.NegotiationSession{}
	query := s.rebind(`SELECT id, contribution_id, giver_user_id, receiver_user_id, mode, status, current_proposal_id, created_at, updated_at
FROM negotiation_sessions WHERE contribution_id = ? ORDER BY created_at DESC, id DESC`)
	if err := s.db.SelectContext(ctx, &sessions, query, contributionID); err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	return sessions, nil
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id string, status domain.SessionStatus, at time.Time) error {
	query := s.rebind(`UPDATE negotiation_sessions SET status = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, status, at, id)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) HasOpenSession(ctx context.Context, contributionID string) (bool, error) {
	var count int
	query := s.rebind(`SELECT COUNT(*) FROM negotiation_sessions
WHERE contribution_id = ? AND status NOT IN (?, ?, ?)`)
	err := s.db.GetContext(ctx, &count, query, contributionID,
		domain.SessionAgreed, domain.SessionRejected, domain.SessionCancelled)
	if err != nil {
		return false, fmt.Errorf("count open sessions: %w", err)
	}
	return count > 0, nil
}

// --- proposals ---

func (s *Store) CreateProposal(ctx context.Context, p *domain.NegotiationProposal) error {
	p.CreatedAt = time.Now().UTC()

	query := s.rebind(`INSERT INTO negotiation_proposals
(id, session_id, proposed_by, proposal_data, message, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		p.ID, p.SessionID, p.ProposedBy, string(p.ProposalData), p.Message, p.Status, p.CreatedAt); err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (s *Store) GetProposal(ctx context.Context, id string) (*domain.NegotiationProposal, error) {
	var p domain.NegotiationProposal
	query := s.rebind(`SELECT id, session_id, proposed_by, proposal_data, message, status, created_at
FROM negotiation_proposals WHERE id = ?`)
	if err := s.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select proposal: %w", err)
	}
	return &p, nil
}

func (s *Store) ListProposals(ctx context.Context, sessionID string) ([]*domain.NegotiationProposal, error) {
	proposals := []*domain.NegotiationProposal{}
	query := s.rebind(`SELECT id, session_id, proposed_by, proposal_data, message, status, created_at
FROM negotiation_proposals WHERE session_id = ? ORDER BY created_at DESC, id DESC`)
	if err := s.db.SelectContext(ctx, &proposals, query, sessionID); err != nil {
		return nil, fmt.Errorf("select proposals: %w", err)
	}
	return proposals, nil
}

func (s *Store) CountOpenProposals(ctx context.Context, sessionID string) (int, error) {
	var count int
	query := s.rebind(`SELECT COUNT(*) FROM negotiation_proposals WHERE session_id = ? AND status = ?`)
	if err := s.db.GetContext(ctx, &count, query, sessionID, domain.ProposalPending); err != nil {
		return 0, fmt.Errorf("count open proposals: %w", err)
	}
	return count, nil
}

func (s *Store) UpdateProposalStatus(ctx context.Context, id string, status domain.ProposalStatus) error {
	query := s.rebind(`UPDATE negotiation_proposals SET status = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) AcceptProposal(ctx context.Context, sessionID, proposalID string, at time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		s.rebind(`UPDATE negotiation_proposals SET status = ? WHERE id = ? AND session_id = ?`),
		domain.ProposalAccepted, proposalID, sessionID)
	if err != nil {
		return fmt.Errorf("accept proposal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	res, err = tx.ExecContext(ctx,
		s.rebind(`UPDATE negotiation_sessions SET status = ?, current_proposal_id = ?, updated_at = ? WHERE id = ?`),
		domain.SessionAgreed, proposalID, at, sessionID)
	if err != nil {
		return fmt.Errorf("mark session agreed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept: %w", err)
	}
	return nil
}

// --- messages ---

func (s *Store) AppendMessage(ctx context.Context, m *domain.NegotiationMessage) error {
	m.CreatedAt = time.Now().UTC()

	metadata := "null"
	if len(m.Metadata) > 0 {
		metadata = string(m.Metadata)
	}

	query := s.rebind(`INSERT INTO negotiation_messages
(id, session_id, sender_user_id, message_type, content, file_url, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		m.ID, m.SessionID, m.SenderUserID, m.Type, m.Content, m.FileURL, metadata, m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]*domain.NegotiationMessage, error) {
	messages := []*domain.NegotiationMessage{}
	query := s.rebind(`SELECT id, session_id, sender_user_id, message_type, content, file_url, metadata, created_at
FROM negotiation_messages WHERE session_id = ? ORDER BY created_at ASC, id ASC`)
	if err := s.db.SelectContext(ctx, &messages, query, sessionID); err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	return messages, nil
}

// --- users ---

func (s *Store) GetOrCreateUserByEmail(ctx context.Context, email string) (string, error) {
	var id string
	query := s.rebind(`SELECT id FROM users WHERE email = ?`)
	err := s.db.GetContext(ctx, &id, query, email)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("select user: %w", err)
	}

	id = uuid.NewString()
	insert := s.rebind(`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, insert, id, email, time.Now().UTC()); err != nil {
		// Lost a race with a concurrent first login; re-read.
		if gerr := s.db.GetContext(ctx, &id, query, email); gerr == nil {
			return id, nil
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// --- otp ---

func (s *Store) SaveOTP(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	// Replace any outstanding code: one live code per email.
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM otp_codes WHERE email = ?`), email); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	query := s.rebind(`INSERT INTO otp_codes (email, code_hash, expires_at, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, email, codeHash, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

func (s *Store) ConsumeOTP(ctx context.Context, email, codeHash string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM otp_codes WHERE email = ? AND code_hash = ? AND expires_at > ?`),
		email, codeHash, now)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
