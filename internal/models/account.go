package models

import "time"

type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Account) IsDecorator() bool {
	return a.Role == RoleDecorator
}

// Claim links a decorator to a booking it has claimed.
type Claim struct {
	ID             string    `json:"id"`
	BookingID      string    `json:"bookingId"`
	DecoratorID    string    `json:"decoratorId"`
	DecoratorEmail string    `json:"decoratorEmail"`
	DecoratorName  string    `json:"decoratorName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ClaimView is a claim enriched with its booking. Booking is nil when the
// linked booking could not be found.
type ClaimView struct {
	Claim
	Booking *Booking `json:"booking,omitempty"`
}

// RegisterRequest is the body of a sign-up call.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=120"`
	PhotoURL string `json:"photoURL" validate:"omitempty,url"`
}
