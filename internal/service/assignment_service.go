package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"styledecor/internal/auth"
	"styledecor/internal/domain"
	"styledecor/internal/events"
	"styledecor/internal/metrics"
	"styledecor/internal/models"

	"github.com/rs/zerolog"
)

// AssignmentService binds decorators to bookings: claim, confirm, release.
type AssignmentService struct {
	repo     domain.BookingRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewAssignmentService(repo domain.BookingRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *AssignmentService {
	return &AssignmentService{repo: repo, eventBus: eventBus, logger: logger, now: time.Now}
}

// Claim reserves an unclaimed booking for the decorator. Exactly one of
// several concurrent claims on the same booking succeeds.
func (s *AssignmentService) Claim(ctx context.Context, decoratorID, bookingID string) (*models.Claim, error) {
	if decoratorID == "" || bookingID == "" {
		return nil, fmt.Errorf("%w: decorator id and booking id are required", domain.ErrValidation)
	}

	claim, err := s.repo.ClaimBooking(ctx, decoratorID, bookingID, s.now())
	switch {
	case errors.Is(err, domain.ErrAlreadyClaimed):
		metrics.IncClaim("already_claimed")
		return nil, err
	case err != nil:
		metrics.IncClaim("rejected")
		return nil, err
	}

	metrics.IncClaim("won")
	s.logger.Info().
		Str("booking_id", bookingID).
		Str("decorator", claim.DecoratorEmail).
		Msg("booking claimed")
	publish(s.eventBus, s.logger, events.EventBookingClaimed, &models.Booking{
		ID:        bookingID,
		Decorator: models.DecoratorRef{State: models.DecoratorPending, Email: claim.DecoratorEmail},
	}, claim.DecoratorEmail)

	return claim, nil
}

// Confirm turns the pending claim into an assignment and marks the
// decorator busy. Only the claim holder or an admin may confirm.
func (s *AssignmentService) Confirm(ctx context.Context, caller auth.Identity, bookingID string) (*models.Booking, error) {
	claim, err := s.pendingClaim(ctx, caller, bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.ConfirmAssignment(ctx, bookingID, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", bookingID).
		Str("decorator", claim.DecoratorEmail).
		Str("by", caller.Email).
		Msg("decorator assigned")
	publish(s.eventBus, s.logger, events.EventBookingAssigned, booking, caller.Email)
	return booking, nil
}

// Release drops a claim that has not been confirmed yet.
func (s *AssignmentService) Release(ctx context.Context, caller auth.Identity, bookingID string) error {
	claim, err := s.pendingClaim(ctx, caller, bookingID)
	if err != nil {
		return err
	}

	if err := s.repo.ReleaseClaim(ctx, bookingID, claim.DecoratorEmail); err != nil {
		return err
	}

	s.logger.Info().
		Str("booking_id", bookingID).
		Str("decorator", claim.DecoratorEmail).
		Str("by", caller.Email).
		Msg("claim released")
	publish(s.eventBus, s.logger, events.EventBookingReleased, &models.Booking{
		ID:        bookingID,
		Decorator: models.DecoratorRef{Email: claim.DecoratorEmail},
	}, caller.Email)
	return nil
}

// pendingClaim loads the claim on bookingID and checks the caller holds it.
func (s *AssignmentService) pendingClaim(ctx context.Context, caller auth.Identity, bookingID string) (*models.Claim, error) {
	claim, err := s.repo.GetClaim(ctx, bookingID)
	if errors.Is(err, domain.ErrNotFound) {
		// нет заявки декоратора: либо нет заказа, либо он ещё свободен
		if _, err := s.repo.GetBooking(ctx, bookingID); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotPending
	}
	if err != nil {
		return nil, err
	}

	if !auth.CanActFor(caller, claim.DecoratorEmail) {
		return nil, fmt.Errorf("%s on booking %s: %w", caller.Email, bookingID, domain.ErrForbidden)
	}
	return claim, nil
}

// DecoratorClaims returns every claim of the decorator with its booking.
// A claim whose booking is gone is returned without one.
func (s *AssignmentService) DecoratorClaims(ctx context.Context, email string) ([]*models.ClaimView, error) {
	email = auth.NormalizeEmail(email)
	claims, err := s.repo.ListClaimsByDecorator(ctx, email)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ClaimView, 0, len(claims))
	for _, c := range claims {
		view := &models.ClaimView{Claim: *c}
		booking, err := s.repo.GetBooking(ctx, c.BookingID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.logger.Warn().Str("booking_id", c.BookingID).Str("decorator", email).Msg("claimed booking not found")
		case err != nil:
			return nil, err
		default:
			view.Booking = booking
		}
		views = append(views, view)
	}
	return views, nil
}
