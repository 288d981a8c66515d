package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"styledecor/internal/auth"
	"styledecor/internal/config"
	"styledecor/internal/metrics"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking API over HTTP/JSON.
type HTTPServer struct {
	cfg    config.APIConfig
	server *http.Server
	logger zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, gate identifier, db pinger, logger *zerolog.Logger) *HTTPServer {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "http").Logger()
	}

	srv := &HTTPServer{cfg: cfg, logger: log}
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           NewRouter(cfg, svc, gate, db, &srv.logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSeconds) * time.Second,
	}
	return srv
}

// NewRouter builds the route table with its middleware stack.
func NewRouter(cfg config.APIConfig, svc Services, gate identifier, db pinger, logger *zerolog.Logger) http.Handler {
	h := &handlers{svc: svc, db: db, logger: logger}
	authn := NewHTTPAuth(gate, logger)
	limiter := newRateLimiter(cfg.RateLimit)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	if timeout := cfg.HTTP.RequestTimeout(); timeout > 0 {
		r.Use(chimiddleware.Timeout(timeout))
	}

	r.Get("/healthz", h.healthz)

	r.Group(func(r chi.Router) {
		r.Use(limiter.middleware)

		// public
		r.Post("/users", h.register)
		r.Get("/user-role", h.accountRole)
		r.Get("/services", h.listServices)
		r.Get("/services/{id}", h.getService)

		r.Group(func(r chi.Router) {
			r.Use(authn.Require(auth.AnyRole))
			r.Post("/service-upload", h.createService)
			r.Post("/create-checkout-session", h.createCheckoutSession)
			r.Post("/payment-success", h.paymentSuccess)
			r.Get("/available-decorator", h.availableDecorators)
			r.Patch("/bookings-request/{id}", h.claimBooking)
			r.Delete("/bookings-request/{id}", h.releaseClaim)
			r.Patch("/booking-status/{id}", h.confirmAssignment)
			r.Patch("/booking-status-update/{id}", h.advanceStage)
			r.Get("/my-bookings", h.myBookings)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.Require(auth.DecoratorOnly))
			r.Get("/decorator-services", h.decoratorClaims)
			r.Get("/complete-service", h.completedServices)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.Require(auth.AdminOnly))
			r.Get("/users", h.listAccounts)
			r.Patch("/users/{id}", h.updateRole)
			r.Delete("/users/{id}", h.deleteAccount)
			r.Get("/bookings", h.listBookings)
			r.Get("/bookings/export", h.exportBookings)
		})
	})

	return r
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// requestLogger logs every request and counts it by route pattern.
func requestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.IncHTTP(route, strconv.Itoa(status))

			logger.Info().
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("route", route).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
