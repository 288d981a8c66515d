package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Booking struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	Location      string       `json:"location"`
	Note          string       `json:"note"`
	ServiceID     string       `json:"serviceId"`
	ServiceTitle  string       `json:"serviceTitle"`
	Quantity      int          `json:"quantity"`
	TotalPrice    float64      `json:"totalPrice"`
	Payment       string       `json:"payment"`
	PaymentStatus string       `json:"paymentStatus"`
	TransactionID string       `json:"transactionId"`
	Decorator     DecoratorRef `json:"decorator"`
	BookingStatus StageList    `json:"bookingStatus"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	Version       int64        `json:"-"`
}

// Stage returns the highest filled fulfillment slot.
func (b *Booking) Stage() Stage {
	return b.BookingStatus.Current()
}

func (b *Booking) Completed() bool {
	return b.Stage().Terminal()
}

// DecoratorRef is the decorator field of a booking: unclaimed (null),
// claimed ("pending") or assigned (decorator info object).
type DecoratorRef struct {
	State      string
	Email      string
	Name       string
	PhotoURL   string
	AssignedAt time.Time
}

type decoratorInfo struct {
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	PhotoURL   string    `json:"photoURL,omitempty"`
	AssignedAt time.Time `json:"assignedAt"`
}

func (d DecoratorRef) Unclaimed() bool { return d.State == "" }
func (d DecoratorRef) Pending() bool   { return d.State == DecoratorPending }
func (d DecoratorRef) Assigned() bool  { return d.State == DecoratorAssigned }

func (d DecoratorRef) MarshalJSON() ([]byte, error) {
	switch d.State {
	case "":
		return []byte("null"), nil
	case DecoratorPending:
		return json.Marshal(DecoratorPending)
	case DecoratorAssigned:
		return json.Marshal(decoratorInfo{
			Email:      d.Email,
			Name:       d.Name,
			PhotoURL:   d.PhotoURL,
			AssignedAt: d.AssignedAt,
		})
	default:
		return nil, fmt.Errorf("unknown decorator state %q", d.State)
	}
}

func (d *DecoratorRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*d = DecoratorRef{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != DecoratorPending {
			return fmt.Errorf("unknown decorator state %q", s)
		}
		*d = DecoratorRef{State: DecoratorPending}
		return nil
	}

	var info decoratorInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return err
	}
	*d = DecoratorRef{
		State:      DecoratorAssigned,
		Email:      info.Email,
		Name:       info.Name,
		PhotoURL:   info.PhotoURL,
		AssignedAt: info.AssignedAt,
	}
	return nil
}
