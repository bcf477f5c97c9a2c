package room

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/domain"
	"github.com/simp-lee/hotelweb/internal/pkg"
	"github.com/simp-lee/hotelweb/internal/roomsearch"
	"github.com/simp-lee/hotelweb/internal/session"
)

// RoomGetter loads a single room.
type RoomGetter interface {
	GetRoom(ctx context.Context, token, externalID string) (*domain.Room, error)
}

// RoomHandler serves the JSON room API.
type RoomHandler struct {
	searcher roomsearch.Searcher
	rooms    RoomGetter
	perPage  int
}

// NewHandler creates a RoomHandler. perPage is the default page size.
func NewHandler(searcher roomsearch.Searcher, rooms RoomGetter, perPage int) *RoomHandler {
	return &RoomHandler{searcher: searcher, rooms: rooms, perPage: perPage}
}

// List handles GET /api/v1/rooms. Every request carries the full filter in
// its query string; nothing is kept between calls.
func (h *RoomHandler) List(c *gin.Context) {
	f, err := roomsearch.FilterFromQuery(c.Request.URL.Query(), h.perPage)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	res, err := h.searcher.Search(c.Request.Context(), session.Current(c), roomsearch.BuildQuery(f))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, res)
}

// Get handles GET /api/v1/rooms/:id.
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), session.Current(c).BearerToken(), c.Param("id"))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg.Response{Code: http.StatusOK, Message: "success", Data: room})
}
