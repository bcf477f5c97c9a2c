package booking

import (
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/domain"
	"github.com/simp-lee/hotelweb/internal/middleware"
	"github.com/simp-lee/hotelweb/internal/pkg"
	"github.com/simp-lee/hotelweb/internal/session"
)

// BookingPageHandler renders the booking form, the payment form and the
// guest's bookings.
type BookingPageHandler struct {
	svc Service
	now func() time.Time
}

// NewPageHandler creates a BookingPageHandler.
func NewPageHandler(svc Service) *BookingPageHandler {
	return &BookingPageHandler{svc: svc, now: time.Now}
}

// BookingForm renders the stay form for a room. The number of nights picked
// on the room page sets the price and the longest stay allowed.
// GET /booking/:id/:days
func (h *BookingPageHandler) BookingForm(c *gin.Context) {
	days, err := strconv.Atoi(c.Param("days"))
	if err != nil || days < 1 || days > MaxStayNights {
		c.HTML(http.StatusBadRequest, "errors/400.html", gin.H{})
		return
	}

	s := session.Current(c)
	quote, err := h.svc.Quote(c.Request.Context(), s.BearerToken(), c.Param("id"), days)
	if err != nil {
		h.renderLoadError(c, err)
		return
	}

	today := civil.DateOf(h.now())
	c.HTML(http.StatusOK, "booking/form.html", gin.H{
		"User":      s,
		"Quote":     quote,
		"MinDate":   today.String(),
		"CheckIn":   today.String(),
		"CheckOut":  today.AddDays(days).String(),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// SubmitBooking checks the stay and moves on to payment.
// POST /booking/:id
func (h *BookingPageHandler) SubmitBooking(c *gin.Context) {
	var req StayRequest
	if err := c.ShouldBind(&req); err != nil || !req.AcceptTerms {
		formToast(c, "Accept the terms and choose your dates to continue")
		return
	}

	stay, err := h.svc.ParseStay(req.CheckIn, req.CheckOut, req.MaxNights)
	if err != nil {
		formToast(c, domain.UserMessage(err, "Invalid dates"))
		return
	}

	pkg.HXRedirect(c, "/payment/"+c.Param("id")+"/"+stay.CheckIn.String()+"/"+stay.CheckOut.String())
}

// PaymentForm renders the card form for a chosen stay.
// GET /payment/:id/:checkIn/:checkOut
func (h *BookingPageHandler) PaymentForm(c *gin.Context) {
	stay, err := h.svc.ParseStay(c.Param("checkIn"), c.Param("checkOut"), 0)
	if err != nil {
		c.HTML(http.StatusBadRequest, "errors/400.html", gin.H{"Message": domain.UserMessage(err, "")})
		return
	}

	s := session.Current(c)
	quote, err := h.svc.Quote(c.Request.Context(), s.BearerToken(), c.Param("id"), stay.Nights())
	if err != nil {
		h.renderLoadError(c, err)
		return
	}

	c.HTML(http.StatusOK, "booking/payment.html", gin.H{
		"User":      s,
		"Quote":     quote,
		"CheckIn":   stay.CheckIn.String(),
		"CheckOut":  stay.CheckOut.String(),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// SubmitPayment books the stay with the posted card.
// POST /payment/:id
func (h *BookingPageHandler) SubmitPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBind(&req); err != nil {
		formToast(c, "Fill in every card field")
		return
	}

	stay, err := h.svc.ParseStay(req.CheckIn, req.CheckOut, 0)
	if err != nil {
		formToast(c, domain.UserMessage(err, "Invalid dates"))
		return
	}
	card, err := ParseCard(req.CardNumber, req.Expiration, req.CVV, h.now())
	if err != nil {
		formToast(c, domain.UserMessage(err, "Invalid card"))
		return
	}

	if err := h.svc.Book(c.Request.Context(), session.Current(c).BearerToken(), c.Param("id"), stay, card); err != nil {
		formToast(c, domain.UserMessage(err, "Failed to create booking"))
		return
	}

	pkg.SetToast(c, "Booking confirmed", pkg.ToastSuccess)
	pkg.HXRedirect(c, "/my-bookings")
}

// MyBookings lists the guest's bookings.
// GET /my-bookings
func (h *BookingPageHandler) MyBookings(c *gin.Context) {
	s := session.Current(c)
	data := gin.H{
		"User":      s,
		"CSRFToken": middleware.GetCSRFToken(c),
	}

	bookings, err := h.svc.List(c.Request.Context(), s.BearerToken())
	if err != nil {
		data["Error"] = domain.UserMessage(err, "Failed to load bookings")
		c.HTML(http.StatusOK, "booking/my_bookings.html", data)
		return
	}
	data["Bookings"] = bookings
	c.HTML(http.StatusOK, "booking/my_bookings.html", data)
}

// Cancel cancels a booking and answers with the refreshed list fragment.
// DELETE /my-bookings/:id
func (h *BookingPageHandler) Cancel(c *gin.Context) {
	s := session.Current(c)
	ctx := c.Request.Context()

	if err := h.svc.Cancel(ctx, s.BearerToken(), c.Param("id")); err != nil {
		pkg.ToastOnly(c, domain.UserMessage(err, "Failed to cancel booking"), pkg.ToastError)
		return
	}

	bookings, err := h.svc.List(ctx, s.BearerToken())
	if err != nil {
		// The cancel went through; the guest can reload the list.
		pkg.ToastOnly(c, "Booking cancelled. Reload to see the updated list.", pkg.ToastInfo)
		return
	}

	pkg.SetToast(c, "Booking cancelled", pkg.ToastSuccess)
	c.HTML(http.StatusOK, "booking/_list.html", gin.H{
		"Bookings":  bookings,
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

func (h *BookingPageHandler) renderLoadError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		c.HTML(http.StatusNotFound, "errors/404.html", gin.H{})
	case domain.IsValidation(err):
		c.HTML(http.StatusBadRequest, "errors/400.html", gin.H{})
	default:
		c.HTML(domain.HTTPStatusCode(err), "errors/500.html", gin.H{
			"Message": domain.UserMessage(err, "Failed to load room details"),
		})
	}
}

// formToast reports a form problem. Forms post through htmx, so plain
// requests only see the status.
func formToast(c *gin.Context, message string) {
	if pkg.IsHTMX(c) {
		pkg.ToastOnly(c, message, pkg.ToastError)
		return
	}
	c.String(http.StatusBadRequest, message)
}
