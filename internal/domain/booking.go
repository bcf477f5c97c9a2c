package domain

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// Payment statuses reported by the backend for a booking.
const (
	PaymentSuccess  = "SUCCESS"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

// Booking is a reservation owned by the logged-in user.
type Booking struct {
	ExternalID     string  `json:"external_id"`
	RoomExternalID string  `json:"room_external_id,omitempty"`
	RoomName       string  `json:"room_name"`
	CheckInDate    string  `json:"checkin_date"`
	CheckOutDate   string  `json:"checkout_date"`
	TotalPrice     float64 `json:"total_price,omitempty"`
	PaymentStatus  string  `json:"payment_status"`
}

// CheckIn returns the calendar check-in date.
func (b *Booking) CheckIn() (civil.Date, error) {
	return ParseCalendarDate(b.CheckInDate)
}

// CheckOut returns the calendar check-out date.
func (b *Booking) CheckOut() (civil.Date, error) {
	return ParseCalendarDate(b.CheckOutDate)
}

// Nights returns the number of nights between check-in and check-out, or 0
// when either date is unreadable.
func (b *Booking) Nights() int {
	in, err := b.CheckIn()
	if err != nil {
		return 0
	}
	out, err := b.CheckOut()
	if err != nil {
		return 0
	}
	if n := out.DaysSince(in); n > 0 {
		return n
	}
	return 0
}

// StatusLabel maps the backend payment status to the label shown to guests.
func (b *Booking) StatusLabel() string {
	switch b.PaymentStatus {
	case PaymentSuccess:
		return "confirmed"
	case PaymentFailed:
		return "pending"
	case PaymentRefunded:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Cancellable reports whether the booking can still be cancelled.
func (b *Booking) Cancellable() bool {
	return b.PaymentStatus != PaymentRefunded
}

// ParseCalendarDate reads a calendar date from "YYYY-MM-DD" or from the date
// prefix of an RFC 3339 timestamp. The calendar day is kept as written; no
// timezone conversion is applied.
func ParseCalendarDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10]
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
