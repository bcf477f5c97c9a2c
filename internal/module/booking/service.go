package booking

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"github.com/simp-lee/hotelweb/internal/backend"
	"github.com/simp-lee/hotelweb/internal/domain"
)

// MaxStayNights bounds the length of a single booking.
const MaxStayNights = 30

// Backend is the part of the booking backend this module uses.
type Backend interface {
	GetRoom(ctx context.Context, token, externalID string) (*domain.Room, error)
	CreateBooking(ctx context.Context, token string, p backend.BookingPayload) error
	ListBookings(ctx context.Context, token string) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, token, externalID string) error
}

// Stay is a validated date range for one room.
type Stay struct {
	CheckIn  civil.Date
	CheckOut civil.Date
}

// Nights is the number of nights of the stay.
func (s Stay) Nights() int { return s.CheckOut.DaysSince(s.CheckIn) }

// Quote is a room with the price of a stay in it.
type Quote struct {
	Room   *domain.Room
	Nights int
	Total  float64
}

// Service covers booking a room, paying for it and managing bookings.
type Service interface {
	Quote(ctx context.Context, token, roomID string, nights int) (*Quote, error)
	ParseStay(checkIn, checkOut string, maxNights int) (Stay, error)
	Book(ctx context.Context, token, roomID string, stay Stay, card Card) error
	List(ctx context.Context, token string) ([]domain.Booking, error)
	Cancel(ctx context.Context, token, bookingID string) error
}

type bookingService struct {
	backend Backend
	now     func() time.Time
}

// NewService creates a booking Service over the backend.
func NewService(b Backend) Service {
	return &bookingService{backend: b, now: time.Now}
}

func (s *bookingService) Quote(ctx context.Context, token, roomID string, nights int) (*Quote, error) {
	if nights < 1 || nights > MaxStayNights {
		return nil, domain.NewAppError(domain.CodeValidation, "invalid number of nights", nil)
	}
	room, err := s.backend.GetRoom(ctx, token, roomID)
	if err != nil {
		return nil, err
	}
	return &Quote{Room: room, Nights: nights, Total: room.Price * float64(nights)}, nil
}

// ParseStay reads the stay dates. Check-in may not be in the past,
// check-out must follow check-in, and the stay may not exceed maxNights
// (MaxStayNights when maxNights is 0).
func (s *bookingService) ParseStay(checkIn, checkOut string, maxNights int) (Stay, error) {
	in, err := civil.ParseDate(checkIn)
	if err != nil {
		return Stay{}, domain.NewAppError(domain.CodeValidation, "Check-in must be a valid date", err)
	}
	out, err := civil.ParseDate(checkOut)
	if err != nil {
		return Stay{}, domain.NewAppError(domain.CodeValidation, "Check-out must be a valid date", err)
	}
	if in.Before(civil.DateOf(s.now())) {
		return Stay{}, domain.NewAppError(domain.CodeValidation, "Check-in cannot be in the past", nil)
	}
	if !out.After(in) {
		return Stay{}, domain.NewAppError(domain.CodeValidation, "Check-out must be after check-in", nil)
	}
	if maxNights <= 0 || maxNights > MaxStayNights {
		maxNights = MaxStayNights
	}
	stay := Stay{CheckIn: in, CheckOut: out}
	if stay.Nights() > maxNights {
		return Stay{}, domain.NewAppError(domain.CodeValidation, "The stay is longer than the selected number of nights", nil)
	}
	return stay, nil
}

func (s *bookingService) Book(ctx context.Context, token, roomID string, stay Stay, card Card) error {
	return s.backend.CreateBooking(ctx, token, backend.BookingPayload{
		CheckInDate:        stay.CheckIn.String(),
		CheckOutDate:       stay.CheckOut.String(),
		RoomExternalID:     roomID,
		CardNumber:         card.Number,
		CardExpirationDate: card.Expiration,
		CardCode:           card.CVV,
	})
}

func (s *bookingService) List(ctx context.Context, token string) ([]domain.Booking, error) {
	return s.backend.ListBookings(ctx, token)
}

func (s *bookingService) Cancel(ctx context.Context, token, bookingID string) error {
	return s.backend.CancelBooking(ctx, token, bookingID)
}
