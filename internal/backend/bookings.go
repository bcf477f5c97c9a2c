package backend

import (
	"context"
	"net/http"

	"github.com/simp-lee/hotelweb/internal/domain"
)

const (
	pathBookings    = "/api/booking/"
	pathBookingList = "/api/booking/list/"

	msgCreateBooking = "failed to create booking"
	msgListBookings  = "failed to load bookings"
	msgCancelBooking = "failed to cancel booking"
)

// BookingPayload is a booking request with the simulated card details.
type BookingPayload struct {
	CheckInDate        string `json:"checkin_date"`
	CheckOutDate       string `json:"checkout_date"`
	RoomExternalID     string `json:"room_external_id"`
	CardNumber         string `json:"card_number"`
	CardExpirationDate string `json:"card_expiration_date"`
	CardCode           string `json:"card_code"`
}

// CreateBooking books a room for the logged-in user.
func (c *Client) CreateBooking(ctx context.Context, token string, p BookingPayload) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     pathBookings,
		token:    token,
		body:     p,
		fallback: msgCreateBooking,
	}, nil)
}

// ListBookings returns the logged-in user's bookings.
func (c *Client) ListBookings(ctx context.Context, token string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     pathBookingList,
		token:    token,
		fallback: msgListBookings,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Booking{}
	}
	return out, nil
}

// CancelBooking cancels a booking by its external ID.
func (c *Client) CancelBooking(ctx context.Context, token, externalID string) error {
	segment, ok := pathSegment(externalID)
	if !ok {
		return domain.NewAppError(domain.CodeValidation, "booking id is required", nil)
	}
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     pathBookings + segment,
		token:    token,
		fallback: msgCancelBooking,
	}, nil)
}
