// Package contribution implements the contribution lifecycle service: every
// status change goes through the transition table, and writes are conditional
// on the status the service observed.
package contribution

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/primetimelines/shonacoin/internal/domain"
	"github.com/primetimelines/shonacoin/internal/storage"
)

// Service owns contribution records. It validates transitions locally before
// any write reaches the backend.
type Service struct {
	store  storage.ContributionStore
	logger *slog.Logger
}

// NewService creates a contribution service.
func NewService(store storage.ContributionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Create persists a new contribution in draft for the given owner.
func (s *Service) Create(ctx context.Context, ownerID, title string) (*domain.Contribution, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized("no actor identity for contribution create")
	}

	c := &domain.Contribution{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Title:   strings.TrimSpace(title),
		Status:  domain.StatusDraft,
	}
	if err := s.store.CreateContribution(ctx, c); err != nil {
		return nil, domain.ErrPersistence("create contribution", err)
	}

	s.logger.Info("contribution created",
		slog.String("contribution_id", c.ID),
		slog.String("owner_user_id", ownerID))
	return c, nil
}

// Get loads a contribution by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Contribution, error) {
	c, err := s.store.GetContribution(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrNotFound("contribution", id)
		}
		return nil, domain.ErrPersistence("load contribution", err)
	}
	return c, nil
}

// UpdateStatus moves a contribution to the requested status. The transition
// is validated against the lifecycle table before anything is written, and
// the write itself is conditional on the status observed here: if another
// caller moved the contribution in between, the update does not apply and a
// conflict is reported instead of a silent last-writer-wins.
func (s *Service) UpdateStatus(ctx context.Context, id string, requested domain.Status) (*domain.Contribution, error) {
	current, err := s.store.GetContribution(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrNotFound("contribution", id)
		}
		return nil, domain.ErrPersistence("load contribution", err)
	}

	ok, err := domain.ValidTransition(current.Status, requested)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if !ok {
		s.logger.Warn("status transition rejected",
			slog.String("contribution_id", id),
			slog.String("from", string(current.Status)),
			slog.String("to", string(requested)))
		return nil, domain.ErrInvalidTransition(current.Status, requested)
	}

	now := time.Now().UTC()
	applied, err := s.store.UpdateContributionStatus(ctx, id, current.Status, requested, now)
	if err != nil {
		return nil, domain.ErrPersistence("update contribution status", err)
	}
	if !applied {
		// Either the row vanished or the status moved underneath us.
		// Re-read to tell the two apart.
		if _, gerr := s.store.GetContribution(ctx, id); errors.Is(gerr, storage.ErrNotFound) {
			return nil, domain.ErrNotFound("contribution", id)
		}
		return nil, domain.ErrConflict("contribution status changed concurrently, re-read and retry")
	}

	s.logger.Info("contribution status updated",
		slog.String("contribution_id", id),
		slog.String("from", string(current.Status)),
		slog.String("to", string(requested)))

	current.Status = requested
	current.UpdatedAt = now
	return current, nil
}
