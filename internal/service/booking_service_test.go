package service

import (
	"context"
	"testing"
	"time"

	"styledecor/internal/domain"
	"styledecor/internal/events"
	"styledecor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func paidSession() *models.CheckoutSession {
	return &models.CheckoutSession{
		ID:              "cs_1",
		CustomerEmail:   "anna@example.com",
		PaymentStatus:   models.PaymentStatusPaid,
		PaymentIntentID: "pi_1",
		Metadata: models.Metadata{
			"name":         "Anna",
			"serviceId":    "svc-1",
			"serviceTitle": "Wedding Decor",
			"quantity":     "2",
			"totalPrice":   "499.99",
		},
	}
}

func newBookingService(repo *mockBookingRepo, payments *mockPayments, bus *mockPublisher) *BookingService {
	s := NewBookingService(repo, payments, publisherOrNil(bus), nopLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestBookingService_ReconcilePayment_Created(t *testing.T) {
	ctx := context.Background()
	repo, payments, bus := new(mockBookingRepo), new(mockPayments), new(mockPublisher)
	s := newBookingService(repo, payments, bus)

	payments.On("GetCheckoutSession", ctx, "cs_1").Return(paidSession(), nil)
	repo.On("InsertBookingIfAbsent", ctx, mock.MatchedBy(func(b *models.Booking) bool {
		return b.ID != "" &&
			b.TransactionID == "pi_1" &&
			b.Email == "anna@example.com" &&
			b.Quantity == 2 &&
			b.TotalPrice == 499.99 &&
			b.Decorator.Unclaimed() &&
			b.Stage() == models.StageNone &&
			b.CreatedAt.Equal(fixedNow)
	})).Return(true, nil)
	bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil)

	res, err := s.ReconcilePayment(ctx, "cs_1")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Wedding Decor", res.Booking.ServiceTitle)
	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestBookingService_ReconcilePayment_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo, payments, bus := new(mockBookingRepo), new(mockPayments), new(mockPublisher)
	s := newBookingService(repo, payments, bus)

	existing := &models.Booking{ID: "b-1", TransactionID: "pi_1"}
	payments.On("GetCheckoutSession", ctx, "cs_1").Return(paidSession(), nil)
	repo.On("InsertBookingIfAbsent", ctx, mock.Anything).Return(false, nil)
	repo.On("GetBookingByTransaction", ctx, "pi_1").Return(existing, nil)

	res, err := s.ReconcilePayment(ctx, "cs_1")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Same(t, existing, res.Booking)
	bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
}

func TestBookingService_ReconcilePayment_Unpaid(t *testing.T) {
	ctx := context.Background()
	repo, payments := new(mockBookingRepo), new(mockPayments)
	s := newBookingService(repo, payments, nil)

	unpaid := paidSession()
	unpaid.PaymentStatus = "unpaid"
	payments.On("GetCheckoutSession", ctx, "cs_1").Return(unpaid, nil)

	_, err := s.ReconcilePayment(ctx, "cs_1")
	assert.ErrorIs(t, err, domain.ErrPaymentNotConfirmed)

	noIntent := paidSession()
	noIntent.PaymentIntentID = ""
	payments.On("GetCheckoutSession", ctx, "cs_2").Return(noIntent, nil)

	_, err = s.ReconcilePayment(ctx, "cs_2")
	assert.ErrorIs(t, err, domain.ErrPaymentNotConfirmed)

	repo.AssertNotCalled(t, "InsertBookingIfAbsent", mock.Anything, mock.Anything)
}

func TestBookingService_ReconcilePayment_Errors(t *testing.T) {
	ctx := context.Background()
	repo, payments := new(mockBookingRepo), new(mockPayments)
	s := newBookingService(repo, payments, nil)

	_, err := s.ReconcilePayment(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	payments.On("GetCheckoutSession", ctx, "cs_down").Return(nil, domain.ErrUpstream)
	_, err = s.ReconcilePayment(ctx, "cs_down")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestBookingService_Queries(t *testing.T) {
	ctx := context.Background()
	repo := new(mockBookingRepo)
	s := newBookingService(repo, new(mockPayments), nil)

	mine := []*models.Booking{{ID: "b-1"}}
	repo.On("ListBookingsByEmail", ctx, "anna@example.com").Return(mine, nil)
	repo.On("ListCompletedByDecorator", ctx, "deco@example.com").Return([]*models.Booking{}, nil)

	got, err := s.MyBookings(ctx, "ANNA@example.com")
	require.NoError(t, err)
	assert.Equal(t, mine, got)

	done, err := s.CompletedFor(ctx, "deco@example.com")
	require.NoError(t, err)
	assert.Empty(t, done)
}
