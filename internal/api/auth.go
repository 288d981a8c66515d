package api

import (
	"context"
	"errors"
	"net/http"

	"styledecor/internal/auth"

	"github.com/rs/zerolog"
)

type identifier interface {
	Identify(ctx context.Context, authorization string) (auth.Identity, error)
}

// HTTPAuth resolves the caller from the bearer token and enforces route roles.
type HTTPAuth struct {
	gate   identifier
	logger *zerolog.Logger
}

func NewHTTPAuth(gate identifier, logger *zerolog.Logger) *HTTPAuth {
	return &HTTPAuth{gate: gate, logger: logger}
}

// Require admits callers whose role satisfies required. Every refusal is
// the same 401 so the response does not reveal why.
func (a *HTTPAuth) Require(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.gate.Identify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
					a.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("unauthenticated request")
					writeError(w, http.StatusUnauthorized, msgUnauthorized)
					return
				}
				fail(w, r, a.logger, err)
				return
			}

			if decision := auth.Authorize(identity, required); !decision.Allowed {
				a.logger.Debug().
					Str("email", identity.Email).
					Str("role", identity.Role).
					Str("path", r.URL.Path).
					Str("reason", decision.Reason).
					Msg("access denied")
				writeError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func callerFrom(r *http.Request) auth.Identity {
	identity, _ := auth.FromContext(r.Context())
	return identity
}
