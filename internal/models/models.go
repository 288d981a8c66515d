package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Metadata is the string bag carried by a checkout session.
type Metadata map[string]string

func (m Metadata) GetString(key string) string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[key])
}

func (m Metadata) GetInt(key string) int {
	val := m.GetString(key)
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		f, ferr := strconv.ParseFloat(val, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func (m Metadata) GetFloat(key string) float64 {
	val := m.GetString(key)
	if val == "" {
		return 0
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return f
}

func (m Metadata) GetTime(key string) time.Time {
	val := m.GetString(key)
	if val == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CheckoutRequest is the booking intent a customer submits before paying.
type CheckoutRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone" validate:"required"`
	Location     string  `json:"location" validate:"required,max=300"`
	Note         string  `json:"note" validate:"max=1000"`
	Payment      string  `json:"payment" validate:"max=40"`
	ServiceID    string  `json:"serviceId" validate:"required"`
	ServiceTitle string  `json:"serviceTitle" validate:"required,max=200"`
	Quantity     int     `json:"quantity" validate:"required,min=1,max=1000"`
	TotalPrice   float64 `json:"totalPrice" validate:"required,gt=0"`
}

// Metadata builds the bag stored on the provider session.
func (r *CheckoutRequest) Metadata(createdAt time.Time) Metadata {
	return Metadata{
		"name":          r.Name,
		"email":         r.Email,
		"phone":         r.Phone,
		"location":      r.Location,
		"note":          r.Note,
		"payment":       r.Payment,
		"serviceId":     r.ServiceID,
		"serviceTitle":  r.ServiceTitle,
		"quantity":      strconv.Itoa(r.Quantity),
		"totalPrice":    strconv.FormatFloat(r.TotalPrice, 'f', -1, 64),
		"paymentStatus": "pending",
		"createdAt":     createdAt.UTC().Format(time.RFC3339Nano),
	}
}

// AmountCents is the total price in minor currency units.
func (r *CheckoutRequest) AmountCents() int64 {
	return int64(math.Round(r.TotalPrice * 100))
}

// CheckoutSession is the provider's view of a hosted checkout.
type CheckoutSession struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	CustomerEmail   string   `json:"customerEmail"`
	PaymentStatus   string   `json:"paymentStatus"`
	PaymentIntentID string   `json:"paymentIntentId"`
	Metadata        Metadata `json:"metadata"`
}

func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// BookingFromSession builds a fresh, unclaimed booking from a paid session.
func BookingFromSession(s *CheckoutSession, now time.Time) *Booking {
	md := s.Metadata
	email := md.GetString("email")
	if email == "" {
		email = s.CustomerEmail
	}
	return &Booking{
		Name:          md.GetString("name"),
		Email:         email,
		Phone:         md.GetString("phone"),
		Location:      md.GetString("location"),
		Note:          md.GetString("note"),
		ServiceID:     md.GetString("serviceId"),
		ServiceTitle:  md.GetString("serviceTitle"),
		Quantity:      md.GetInt("quantity"),
		TotalPrice:    md.GetFloat("totalPrice"),
		Payment:       md.GetString("payment"),
		PaymentStatus: s.PaymentStatus,
		TransactionID: s.PaymentIntentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Service is a catalog entry.
type Service struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required,max=200"`
	Category    string    `json:"category" validate:"max=80"`
	Description string    `json:"description" validate:"max=4000"`
	Price       float64   `json:"price" validate:"gte=0"`
	Unit        string    `json:"unit" validate:"max=40"`
	ImageURL    string    `json:"imageURL" validate:"omitempty,url"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}
