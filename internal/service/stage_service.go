package service

import (
	"context"
	"fmt"
	"time"

	"styledecor/internal/auth"
	"styledecor/internal/domain"
	"styledecor/internal/events"
	"styledecor/internal/metrics"
	"styledecor/internal/models"

	"github.com/rs/zerolog"
)

// StageService moves assigned bookings through the fulfillment stages.
type StageService struct {
	repo     domain.BookingRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewStageService(repo domain.BookingRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *StageService {
	return &StageService{repo: repo, eventBus: eventBus, logger: logger, now: time.Now}
}

// Advance fills the slot addressed by code (2..6). Stages only move one
// step forward; the final stage frees the decorator.
func (s *StageService) Advance(ctx context.Context, caller auth.Identity, bookingID string, code int) (*models.Booking, error) {
	to, ok := models.StageForCode(code)
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidStageCode, code)
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !(booking.Decorator.Assigned() && auth.CanActFor(caller, booking.Decorator.Email)) {
		return nil, fmt.Errorf("%s on booking %s: %w", caller.Email, bookingID, domain.ErrForbidden)
	}

	from := booking.Stage()
	if !booking.Decorator.Assigned() || !models.CanAdvance(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrStageOrder, from, to)
	}

	updated, err := s.repo.AdvanceStage(ctx, bookingID, from, to, s.now())
	if err != nil {
		return nil, err
	}

	metrics.IncStage(to.Label())
	s.logger.Info().
		Str("booking_id", bookingID).
		Str("stage", to.Label()).
		Str("by", caller.Email).
		Msg("booking stage advanced")
	publish(s.eventBus, s.logger, events.EventBookingStageAdvanced, updated, caller.Email)

	if to.Terminal() {
		metrics.IncDecoratorRelease()
		publish(s.eventBus, s.logger, events.EventBookingCompleted, updated, caller.Email)
	}
	return updated, nil
}
