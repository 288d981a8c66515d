package domain

import (
	"context"
	"time"

	"styledecor/internal/models"
)

type AccountRepository interface {
	// CreateAccount inserts the account unless its email is taken.
	CreateAccount(ctx context.Context, account *models.Account) (bool, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	ListDecorators(ctx context.Context, status string) ([]*models.Account, error)
	UpdateAccountRole(ctx context.Context, id, role string) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

type BookingRepository interface {
	// InsertBookingIfAbsent inserts the booking unless one with the same
	// transaction id exists. It reports whether a row was inserted.
	InsertBookingIfAbsent(ctx context.Context, booking *models.Booking) (bool, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByTransaction(ctx context.Context, transactionID string) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	ListBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error)
	ListCompletedByDecorator(ctx context.Context, email string) ([]*models.Booking, error)

	ClaimBooking(ctx context.Context, decoratorID, bookingID string, at time.Time) (*models.Claim, error)
	ReleaseClaim(ctx context.Context, bookingID, decoratorEmail string) error
	GetClaim(ctx context.Context, bookingID string) (*models.Claim, error)
	ListClaimsByDecorator(ctx context.Context, email string) ([]*models.Claim, error)
	ConfirmAssignment(ctx context.Context, bookingID string, at time.Time) (*models.Booking, error)
	AdvanceStage(ctx context.Context, bookingID string, from, to models.Stage, at time.Time) (*models.Booking, error)
}

type CatalogRepository interface {
	CreateService(ctx context.Context, service *models.Service) error
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context) ([]*models.Service, error)
}

// PaymentProvider creates and reads hosted checkout sessions.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest, metadata models.Metadata) (*models.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error)
}

type ThrottleStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
