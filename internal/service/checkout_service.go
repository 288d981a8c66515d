package service

import (
	"context"
	"fmt"
	"time"

	"styledecor/internal/auth"
	"styledecor/internal/config"
	"styledecor/internal/domain"
	"styledecor/internal/models"
	"styledecor/internal/validation"

	"github.com/rs/zerolog"
)

// CheckoutService opens hosted payment sessions for booking intents.
type CheckoutService struct {
	provider  domain.PaymentProvider
	throttle  domain.ThrottleStore
	cfg       config.CheckoutConfig
	validator *validation.Validator
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewCheckoutService(provider domain.PaymentProvider, throttle domain.ThrottleStore, cfg config.CheckoutConfig, logger *zerolog.Logger) *CheckoutService {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = models.CheckoutRateLimit
	}
	if cfg.RateWindowSeconds <= 0 {
		cfg.RateWindowSeconds = models.CheckoutRateWindow
	}
	return &CheckoutService{
		provider:  provider,
		throttle:  throttle,
		cfg:       cfg,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// CreateSession validates req and returns the provider session the customer
// is redirected to.
func (s *CheckoutService) CreateSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSession, error) {
	req.Email = auth.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	req.Phone = validation.NormalizeE164(req.Phone)

	if s.throttle != nil {
		allowed, err := s.throttle.CheckRateLimit(ctx, "checkout:"+req.Email, s.cfg.RateLimit, s.cfg.RateWindow())
		if err != nil {
			// лимитер недоступен: не блокируем оплату
			s.logger.Warn().Err(err).Str("email", req.Email).Msg("checkout rate limit check failed")
		} else if !allowed {
			return nil, fmt.Errorf("checkout for %s: %w", req.Email, domain.ErrRateLimited)
		}
	}

	session, err := s.provider.CreateCheckoutSession(ctx, req, req.Metadata(s.now()))
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", session.ID).
		Str("email", req.Email).
		Str("service_id", req.ServiceID).
		Msg("checkout session created")
	return session, nil
}
