package room

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/session"
)

// RoomModule implements the app.Module interface for room search.
type RoomModule struct {
	handler     *RoomHandler
	pageHandler *RoomPageHandler
	sessions    *session.Manager
}

// NewModule creates a new RoomModule. Panics if any argument is nil.
func NewModule(h *RoomHandler, ph *RoomPageHandler, sessions *session.Manager) *RoomModule {
	if h == nil {
		panic("room.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("room.NewModule: pageHandler must not be nil")
	}
	if sessions == nil {
		panic("room.NewModule: sessions must not be nil")
	}
	return &RoomModule{handler: h, pageHandler: ph, sessions: sessions}
}

// RegisterRoutes registers room API and page routes. All of them require a
// logged-in session.
func (m *RoomModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	authAPI := api.Group("", m.sessions.Require())
	authAPI.GET("/rooms", m.handler.List)
	authAPI.GET("/rooms/:id", m.handler.Get)

	authPages := pages.Group("", m.sessions.Require())
	authPages.GET("/dashboard", m.pageHandler.Dashboard)
	authPages.GET("/rooms", m.pageHandler.ListPage)
	authPages.POST("/rooms/filters", m.pageHandler.Filter)
	authPages.GET("/room/:id", m.pageHandler.DetailPage)
}
