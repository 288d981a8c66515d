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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReconcileResult is the outcome of a payment reconciliation. Created is
// false when the payment had already produced a booking.
type ReconcileResult struct {
	Booking *models.Booking
	Created bool
}

type BookingService struct {
	repo     domain.BookingRepository
	payments domain.PaymentProvider
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.BookingRepository, payments domain.PaymentProvider, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		payments: payments,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// ReconcilePayment turns a paid checkout session into exactly one booking.
func (s *BookingService) ReconcilePayment(ctx context.Context, sessionID string) (*ReconcileResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrValidation)
	}

	session, err := s.payments.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Paid() || session.PaymentIntentID == "" {
		metrics.IncReconciliation("unpaid")
		s.logger.Info().Str("session_id", sessionID).Str("payment_status", session.PaymentStatus).Msg("payment not confirmed")
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrPaymentNotConfirmed)
	}

	booking := models.BookingFromSession(session, s.now().UTC())
	booking.ID = uuid.NewString()
	booking.Email = auth.NormalizeEmail(booking.Email)

	created, err := s.repo.InsertBookingIfAbsent(ctx, booking)
	if err != nil {
		return nil, err
	}
	if !created {
		existing, err := s.repo.GetBookingByTransaction(ctx, session.PaymentIntentID)
		if err != nil {
			return nil, err
		}
		metrics.IncReconciliation("duplicate")
		s.logger.Debug().Str("transaction_id", session.PaymentIntentID).Str("booking_id", existing.ID).Msg("payment already reconciled")
		return &ReconcileResult{Booking: existing}, nil
	}

	metrics.IncReconciliation("created")
	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("transaction_id", booking.TransactionID).
		Str("email", booking.Email).
		Msg("booking created from payment")
	publish(s.eventBus, s.logger, events.EventBookingCreated, booking, "system")

	return &ReconcileResult{Booking: booking, Created: true}, nil
}

// ListAll returns the whole ledger, newest first.
func (s *BookingService) ListAll(ctx context.Context) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx)
}

// MyBookings returns the bookings a customer paid for, newest first.
func (s *BookingService) MyBookings(ctx context.Context, email string) ([]*models.Booking, error) {
	return s.repo.ListBookingsByEmail(ctx, auth.NormalizeEmail(email))
}

// CompletedFor returns bookings the decorator has taken to the final stage.
func (s *BookingService) CompletedFor(ctx context.Context, decoratorEmail string) ([]*models.Booking, error) {
	return s.repo.ListCompletedByDecorator(ctx, auth.NormalizeEmail(decoratorEmail))
}
