package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"styledecor/internal/domain"

	"github.com/rs/zerolog"
)

const msgUnauthorized = "unauthorized"

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidStageCode):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPaymentNotConfirmed):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrNotDecorator),
		errors.Is(err, domain.ErrDecoratorBusy),
		errors.Is(err, domain.ErrNotPending),
		errors.Is(err, domain.ErrStageOrder),
		errors.Is(err, domain.ErrConcurrentModification),
		errors.Is(err, domain.ErrAccountBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Server-side failures are logged and
// their details stay out of the response.
func fail(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusUnauthorized:
		msg = msgUnauthorized
	case status == http.StatusBadGateway:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("upstream failure")
		msg = "payment provider unavailable"
	case status >= http.StatusInternalServerError:
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadJSON
	}
	return nil
}

var errBadJSON = fmt.Errorf("%w: invalid JSON body", domain.ErrValidation)
