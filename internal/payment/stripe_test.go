package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"styledecor/internal/config"
	"styledecor/internal/domain"
	"styledecor/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *StripeProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	logger := zerolog.Nop()
	cfg := config.PaymentConfig{StripeSecretKey: "sk_test_123", DomainURL: "https://decor.test", Currency: "usd"}
	return newStripeProvider(cfg, backend, &logger)
}

func TestStripeProvider_CreateCheckoutSession(t *testing.T) {
	var form map[string]string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_123","object":"checkout.session","url":"https://pay.test/cs_123","payment_status":"unpaid"}`))
	})

	req := &models.CheckoutRequest{Email: "a@x.com", ServiceTitle: "Wedding Decor", Quantity: 2, TotalPrice: 500}
	s, err := p.CreateCheckoutSession(context.Background(), req, models.Metadata{"email": "a@x.com", "quantity": "2"})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", s.ID)
	assert.Equal(t, "https://pay.test/cs_123", s.URL)

	assert.Equal(t, "payment", form["mode"])
	assert.Equal(t, "a@x.com", form["customer_email"])
	assert.Equal(t, "https://decor.test/payment-success?session_id={CHECKOUT_SESSION_ID}", form["success_url"])
	assert.Equal(t, "https://decor.test/payment-failed", form["cancel_url"])
	assert.Equal(t, "50000", form["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, "usd", form["line_items[0][price_data][currency]"])
	assert.Equal(t, "Wedding Decor", form["line_items[0][price_data][product_data][name]"])
	assert.Equal(t, "2", form["metadata[quantity]"])
}

func TestStripeProvider_GetCheckoutSession(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/checkout/sessions/cs_paid":
			_, _ = w.Write([]byte(`{
				"id": "cs_paid",
				"object": "checkout.session",
				"payment_status": "paid",
				"payment_intent": "pi_1",
				"customer_email": "a@x.com",
				"metadata": {"serviceTitle": "Wedding Decor", "totalPrice": "500"}
			}`))
		case "/v1/checkout/sessions/cs_missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session"}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
		}
	})
	ctx := context.Background()

	s, err := p.GetCheckoutSession(ctx, "cs_paid")
	require.NoError(t, err)
	assert.True(t, s.Paid())
	assert.Equal(t, "pi_1", s.PaymentIntentID)
	assert.Equal(t, "a@x.com", s.CustomerEmail)
	assert.Equal(t, "Wedding Decor", s.Metadata.GetString("serviceTitle"))

	_, err = p.GetCheckoutSession(ctx, "cs_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = p.GetCheckoutSession(ctx, "cs_broken")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}
