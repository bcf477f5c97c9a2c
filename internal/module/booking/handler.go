package booking

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/pkg"
	"github.com/simp-lee/hotelweb/internal/session"
)

// BookingHandler serves the JSON booking API.
type BookingHandler struct {
	svc Service
	now func() time.Time
}

// NewHandler creates a BookingHandler.
func NewHandler(svc Service) *BookingHandler {
	return &BookingHandler{svc: svc, now: time.Now}
}

// List handles GET /api/v1/bookings.
func (h *BookingHandler) List(c *gin.Context) {
	bookings, err := h.svc.List(c.Request.Context(), session.Current(c).BearerToken())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, bookings)
}

// Create handles POST /api/v1/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	stay, err := h.svc.ParseStay(req.CheckIn, req.CheckOut, 0)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	card, err := ParseCard(req.CardNumber, req.Expiration, req.CVV, h.now())
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if err := h.svc.Book(c.Request.Context(), session.Current(c).BearerToken(), req.RoomID, stay, card); err != nil {
		pkg.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, pkg.Response{
		Code:    http.StatusCreated,
		Message: "booking created",
		Data: gin.H{
			"room_id":   req.RoomID,
			"check_in":  stay.CheckIn.String(),
			"check_out": stay.CheckOut.String(),
			"nights":    stay.Nights(),
		},
	})
}

// Cancel handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), session.Current(c).BearerToken(), c.Param("id")); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}
