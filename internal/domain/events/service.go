// Package events holds the event store contract, input normalization, and the
// visibility/authorization policy that gates every operation on the board.
package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	policy Policy
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Create validates and normalizes the input, then inserts the event. The
// owner comes from the verified actor, never from the request payload, and
// the approval state follows the policy: admin-created events publish
// immediately, everything else enters the moderation queue.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateInput) (*Event, error) {
	normalized, err := NormalizeCreateInput(input)
	if err != nil {
		return nil, err
	}

	event, err := s.repo.Create(ctx, CreateParams{
		Title:       normalized.Title,
		Description: normalized.Description,
		Date:        normalized.Date,
		Time:        normalized.Time,
		Owner:       s.policy.Owner(actor),
		Approved:    s.policy.ApprovedOnCreate(actor),
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info().
		Int64("event_id", event.ID).
		Str("owner", event.Owner).
		Bool("approved", event.Approved).
		Msg("event created")
	return event, nil
}

// List returns the events the actor may see, in the requested order. The
// policy silently narrows a pending-inclusive request from a non-admin down
// to approved-only.
func (s *Service) List(ctx context.Context, actor Actor, filter Filter, sort Sort) ([]Event, error) {
	return s.repo.List(ctx, s.policy.Scope(actor, filter), sort)
}

// Get returns a single event. A pending event reads as not-found for
// non-admins, the same as a missing id, so its existence never leaks.
func (s *Service) Get(ctx context.Context, actor Actor, id int64) (*Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanView(actor, event) {
		return nil, ErrNotFound
	}
	return event, nil
}

// Approve transitions an event from pending to approved. Idempotent: a
// second approval succeeds without effect. The permission check runs before
// the lookup so non-admins get ErrPermissionDenied even for missing ids.
func (s *Service) Approve(ctx context.Context, actor Actor, id int64) (*Event, error) {
	if err := s.policy.CanApprove(actor); err != nil {
		return nil, err
	}

	event, err := s.repo.SetApproved(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("event_id", id).
		Str("approved_by", actor.Username).
		Msg("event approved")
	return event, nil
}

// Delete permanently removes an event. Its id is never reused.
func (s *Service) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := s.policy.CanDelete(actor); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().
		Int64("event_id", id).
		Str("deleted_by", actor.Username).
		Msg("event deleted")
	return nil
}
