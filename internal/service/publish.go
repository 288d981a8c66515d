package service

import (
	"time"

	"styledecor/internal/domain"
	"styledecor/internal/events"
	"styledecor/internal/models"

	"github.com/rs/zerolog"
)

func publish(bus domain.EventPublisher, logger *zerolog.Logger, eventType string, booking *models.Booking, changedBy string) {
	if bus == nil {
		return
	}

	stage := booking.Stage()
	payload := events.BookingEventPayload{
		BookingID:      booking.ID,
		TransactionID:  booking.TransactionID,
		CustomerEmail:  booking.Email,
		ServiceTitle:   booking.ServiceTitle,
		DecoratorEmail: booking.Decorator.Email,
		Stage:          int(stage),
		StageLabel:     stage.Label(),
		ChangedBy:      changedBy,
		At:             time.Now().UTC(),
	}

	if err := bus.PublishJSON(eventType, payload); err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}
