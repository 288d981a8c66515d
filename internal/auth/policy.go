package auth

import (
	"context"
	"errors"
	"fmt"

	"styledecor/internal/domain"
	"styledecor/internal/models"
)

// Identity is a verified caller.
type Identity struct {
	Email string
	Role  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Access levels a route can require.
const (
	AnyRole       = ""
	DecoratorOnly = models.RoleDecorator
	AdminOnly     = models.RoleAdmin
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize decides whether identity may access a route requiring role.
func Authorize(identity Identity, required string) Decision {
	if identity.Email == "" {
		return deny("unauthenticated")
	}
	if !models.IsValidRole(identity.Role) {
		return deny("unknown role")
	}
	if required == AnyRole || identity.Role == required {
		return allow()
	}
	return deny(fmt.Sprintf("role %s required", required))
}

// CanActFor reports whether identity may read or act on data owned by email.
func CanActFor(identity Identity, email string) bool {
	return identity.IsAdmin() || (identity.Email != "" && identity.Email == NormalizeEmail(email))
}

type tokenVerifier interface {
	Verify(raw string) (string, error)
}

type accountLookup interface {
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Gate turns an Authorization header into an Identity, resolving the role
// from the account directory.
type Gate struct {
	verifier tokenVerifier
	accounts accountLookup
}

func NewGate(verifier tokenVerifier, accounts accountLookup) *Gate {
	return &Gate{verifier: verifier, accounts: accounts}
}

// Identify verifies the header. Callers without an account are plain users.
func (g *Gate) Identify(ctx context.Context, authorization string) (Identity, error) {
	raw, err := BearerToken(authorization)
	if err != nil {
		return Identity{}, err
	}
	email, err := g.verifier.Verify(raw)
	if err != nil {
		return Identity{}, err
	}

	account, err := g.accounts.GetAccountByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return Identity{Email: email, Role: models.RoleUser}, nil
	case err != nil:
		return Identity{}, fmt.Errorf("resolve role: %w", err)
	}
	return Identity{Email: email, Role: account.Role}, nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
