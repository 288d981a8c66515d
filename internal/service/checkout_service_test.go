package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"styledecor/internal/config"
	"styledecor/internal/domain"
	"styledecor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func checkoutRequest() *models.CheckoutRequest {
	return &models.CheckoutRequest{
		Name:         "Anna",
		Email:        "Anna@Example.com",
		Phone:        "(201) 555-0123",
		Location:     "Dhaka",
		ServiceID:    "svc-1",
		ServiceTitle: "Wedding Decor",
		Quantity:     1,
		TotalPrice:   499.99,
	}
}

func TestCheckoutService_CreateSession(t *testing.T) {
	ctx := context.Background()
	payments := new(mockPayments)
	throttle := new(mockThrottle)
	s := NewCheckoutService(payments, throttle, config.CheckoutConfig{}, nopLogger())
	s.now = func() time.Time { return fixedNow }

	throttle.On("CheckRateLimit", ctx, "checkout:anna@example.com", models.CheckoutRateLimit, 10*time.Minute).Return(true, nil)
	payments.On("CreateCheckoutSession", ctx, mock.Anything, mock.MatchedBy(func(md models.Metadata) bool {
		return md.GetString("email") == "anna@example.com" &&
			md.GetString("phone") == "+12015550123" &&
			md.GetTime("createdAt").Equal(fixedNow)
	})).Return(&models.CheckoutSession{ID: "cs_1", URL: "https://pay.test/cs_1"}, nil)

	session, err := s.CreateSession(ctx, checkoutRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/cs_1", session.URL)
	payments.AssertExpectations(t)
}

func TestCheckoutService_RateLimited(t *testing.T) {
	ctx := context.Background()
	payments := new(mockPayments)
	throttle := new(mockThrottle)
	s := NewCheckoutService(payments, throttle, config.CheckoutConfig{RateLimit: 2, RateWindowSeconds: 60}, nopLogger())

	throttle.On("CheckRateLimit", ctx, "checkout:anna@example.com", 2, time.Minute).Return(false, nil)

	_, err := s.CreateSession(ctx, checkoutRequest())
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	payments.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutService_ThrottleDownStillCreates(t *testing.T) {
	ctx := context.Background()
	payments := new(mockPayments)
	throttle := new(mockThrottle)
	s := NewCheckoutService(payments, throttle, config.CheckoutConfig{}, nopLogger())

	throttle.On("CheckRateLimit", ctx, mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	payments.On("CreateCheckoutSession", ctx, mock.Anything, mock.Anything).Return(&models.CheckoutSession{ID: "cs_2"}, nil)

	session, err := s.CreateSession(ctx, checkoutRequest())
	require.NoError(t, err)
	assert.Equal(t, "cs_2", session.ID)
}

func TestCheckoutService_Validation(t *testing.T) {
	payments := new(mockPayments)
	s := NewCheckoutService(payments, nil, config.CheckoutConfig{}, nopLogger())

	req := checkoutRequest()
	req.Quantity = 0
	_, err := s.CreateSession(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "quantity")
}
