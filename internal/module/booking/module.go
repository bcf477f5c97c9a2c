package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/session"
)

// BookingModule implements the app.Module interface for bookings.
type BookingModule struct {
	handler     *BookingHandler
	pageHandler *BookingPageHandler
	sessions    *session.Manager
}

// NewModule creates a new BookingModule. Panics if any argument is nil.
func NewModule(h *BookingHandler, ph *BookingPageHandler, sessions *session.Manager) *BookingModule {
	if h == nil {
		panic("booking.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("booking.NewModule: pageHandler must not be nil")
	}
	if sessions == nil {
		panic("booking.NewModule: sessions must not be nil")
	}
	return &BookingModule{handler: h, pageHandler: ph, sessions: sessions}
}

// RegisterRoutes registers booking API and page routes behind the session
// guard.
func (m *BookingModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	authAPI := api.Group("/bookings", m.sessions.Require())
	authAPI.GET("", m.handler.List)
	authAPI.POST("", m.handler.Create)
	authAPI.DELETE("/:id", m.handler.Cancel)

	authPages := pages.Group("", m.sessions.Require())
	authPages.GET("/booking/:id/:days", m.pageHandler.BookingForm)
	authPages.POST("/booking/:id", m.pageHandler.SubmitBooking)
	authPages.GET("/payment/:id/:checkIn/:checkOut", m.pageHandler.PaymentForm)
	authPages.POST("/payment/:id", m.pageHandler.SubmitPayment)
	authPages.GET("/my-bookings", m.pageHandler.MyBookings)
	authPages.DELETE("/my-bookings/:id", m.pageHandler.Cancel)
}
