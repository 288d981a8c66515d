package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"styledecor/internal/auth"
	"styledecor/internal/domain"
	"styledecor/internal/export"
	"styledecor/internal/models"
	"styledecor/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Services bundles the application services the HTTP API drives.
type Services struct {
	Accounts    *service.AccountService
	Catalog     *service.CatalogService
	Checkout    *service.CheckoutService
	Bookings    *service.BookingService
	Assignments *service.AssignmentService
	Stages      *service.StageService
}

type pinger interface {
	PingContext(ctx context.Context) error
}

type handlers struct {
	svc    Services
	db     pinger
	logger *zerolog.Logger
}

// POST /users
func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}

	account, created, err := h.svc.Accounts.Register(r.Context(), &req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, map[string]string{"message": "User already exists"})
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GET /users
func (h *handlers) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.Accounts.List(r.Context())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GET /user-role?email=
func (h *handlers) accountRole(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	role, err := h.svc.Accounts.Role(r.Context(), email)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": role})
}

// PATCH /users/{id}
func (h *handlers) updateRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	account, err := h.svc.Accounts.UpdateRole(r.Context(), chi.URLParam(r, "id"), strings.TrimSpace(body.Role))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// DELETE /users/{id}
func (h *handlers) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Accounts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /service-upload
func (h *handlers) createService(w http.ResponseWriter, r *http.Request) {
	var svc models.Service
	if err := decodeJSON(r, &svc); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	created, err := h.svc.Catalog.Create(r.Context(), &svc, callerFrom(r).Email)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GET /services
func (h *handlers) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.Catalog.List(r.Context())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	if services == nil {
		services = []*models.Service{}
	}
	writeJSON(w, http.StatusOK, services)
}

// GET /services/{id}
func (h *handlers) getService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.svc.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// POST /create-checkout-session
func (h *handlers) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	session, err := h.svc.Checkout.CreateSession(r.Context(), &req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": session.URL, "id": session.ID})
}

// POST /payment-success?session_id=
func (h *handlers) paymentSuccess(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Bookings.ReconcilePayment(r.Context(), strings.TrimSpace(r.URL.Query().Get("session_id")))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res.Booking)
}

// GET /bookings
func (h *handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.Bookings.ListAll(r.Context())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeBookings(w, bookings)
}

// GET /bookings/export
func (h *handlers) exportBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.Bookings.ListAll(r.Context())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	name := "bookings_" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteBookingsXLSX(w, bookings); err != nil {
		// заголовки уже отправлены
		h.logger.Error().Err(err).Msg("bookings export failed")
	}
}

// GET /available-decorator
func (h *handlers) availableDecorators(w http.ResponseWriter, r *http.Request) {
	decorators, err := h.svc.Accounts.AvailableDecorators(r.Context())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, decorators)
}

// PATCH /bookings-request/{id}, id is the decorator
func (h *handlers) claimBooking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BookingID string `json:"bookingId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	claim, err := h.svc.Assignments.Claim(r.Context(), chi.URLParam(r, "id"), strings.TrimSpace(body.BookingID))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// DELETE /bookings-request/{id}, id is the booking
func (h *handlers) releaseClaim(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Assignments.Release(r.Context(), callerFrom(r), chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /decorator-services?email=
func (h *handlers) decoratorClaims(w http.ResponseWriter, r *http.Request) {
	email, err := ownEmail(r)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	views, err := h.svc.Assignments.DecoratorClaims(r.Context(), email)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// PATCH /booking-status/{id}
func (h *handlers) confirmAssignment(w http.ResponseWriter, r *http.Request) {
	booking, err := h.svc.Assignments.Confirm(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// PATCH /booking-status-update/{id}
func (h *handlers) advanceStage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code int `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	booking, err := h.svc.Stages.Advance(r.Context(), callerFrom(r), chi.URLParam(r, "id"), body.Code)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// GET /my-bookings?email=
func (h *handlers) myBookings(w http.ResponseWriter, r *http.Request) {
	email, err := ownEmail(r)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	bookings, err := h.svc.Bookings.MyBookings(r.Context(), email)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeBookings(w, bookings)
}

// GET /complete-service?email=
func (h *handlers) completedServices(w http.ResponseWriter, r *http.Request) {
	email, err := ownEmail(r)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	bookings, err := h.svc.Bookings.CompletedFor(r.Context(), email)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeBookings(w, bookings)
}

// GET /healthz
func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("health check: database unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ownEmail returns the email query parameter, defaulting to the caller.
// Only admins may look at someone else's data.
func ownEmail(r *http.Request) (string, error) {
	caller := callerFrom(r)
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		return caller.Email, nil
	}
	if !auth.CanActFor(caller, email) {
		return "", domain.ErrForbidden
	}
	return email, nil
}

func writeBookings(w http.ResponseWriter, bookings []*models.Booking) {
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}
