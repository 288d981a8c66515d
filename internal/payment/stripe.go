package payment

import (
	"context"
	"errors"
	"fmt"

	"styledecor/internal/config"
	"styledecor/internal/domain"
	"styledecor/internal/models"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeProvider creates and reads hosted checkout sessions.
type StripeProvider struct {
	sessions   session.Client
	currency   string
	successURL string
	cancelURL  string
	logger     *zerolog.Logger
}

func NewStripeProvider(cfg config.PaymentConfig, logger *zerolog.Logger) *StripeProvider {
	backendCfg := &stripe.BackendConfig{
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	return newStripeProvider(cfg, stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg), logger)
}

func newStripeProvider(cfg config.PaymentConfig, backend stripe.Backend, logger *zerolog.Logger) *StripeProvider {
	return &StripeProvider{
		sessions:   session.Client{B: backend, Key: cfg.StripeSecretKey},
		currency:   cfg.Currency,
		successURL: cfg.SuccessURL(),
		cancelURL:  cfg.CancelURL(),
		logger:     logger,
	}
}

// CreateCheckoutSession opens a one-line-item payment session for req.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest, metadata models.Metadata) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.Email),
		SuccessURL:    stripe.String(p.successURL),
		CancelURL:     stripe.String(p.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.currency),
					UnitAmount: stripe.Int64(req.AmountCents()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ServiceTitle),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, p.upstream("create checkout session", err)
	}
	return toCheckoutSession(s), nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.sessions.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, fmt.Errorf("checkout session %s: %w", id, domain.ErrNotFound)
		}
		return nil, p.upstream("get checkout session", err)
	}
	return toCheckoutSession(s), nil
}

func (p *StripeProvider) upstream(op string, err error) error {
	p.logger.Error().Err(err).Str("op", op).Msg("payment provider call failed")
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUpstream, err)
}

func toCheckoutSession(s *stripe.CheckoutSession) *models.CheckoutSession {
	out := &models.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		CustomerEmail: s.CustomerEmail,
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      models.Metadata(s.Metadata),
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
