package models

// Account roles.
const (
	RoleUser      = "user"
	RoleDecorator = "decorator"
	RoleAdmin     = "admin"
)

// Decorator availability.
const (
	StatusOpen = "open"
	StatusBusy = "busy"
)

// Decorator claim states stored on a booking.
const (
	DecoratorPending  = "pending"
	DecoratorAssigned = "assigned"
)

// PaymentStatusPaid is the only session payment status that admits a booking.
const PaymentStatusPaid = "paid"

const (
	// StageSlots количество слотов этапов у заявки
	StageSlots = 6

	// DefaultCurrency валюта checkout по умолчанию
	DefaultCurrency = "usd"

	// CheckoutRateLimit количество checkout сессий на email в окне
	CheckoutRateLimit = 10

	// CheckoutRateWindow окно ограничения checkout сессий
	CheckoutRateWindow = 10 * 60 // 10 минут в секундах
)

// IsValidRole reports whether role is one of the known account roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleDecorator, RoleAdmin:
		return true
	}
	return false
}
