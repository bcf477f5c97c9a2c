package room

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/domain"
	"github.com/simp-lee/hotelweb/internal/middleware"
	"github.com/simp-lee/hotelweb/internal/pkg"
	"github.com/simp-lee/hotelweb/internal/roomsearch"
	"github.com/simp-lee/hotelweb/internal/session"
)

// RoomPageHandler renders the room search page, its htmx fragments, the
// room detail page and the dashboard.
type RoomPageHandler struct {
	views *roomsearch.Registry
	rooms RoomGetter
}

// NewPageHandler creates a RoomPageHandler.
func NewPageHandler(views *roomsearch.Registry, rooms RoomGetter) *RoomPageHandler {
	return &RoomPageHandler{views: views, rooms: rooms}
}

// Dashboard renders the main menu.
// GET /dashboard
func (h *RoomPageHandler) Dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"User":      session.Current(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// ListPage enters the search screen: the guest's view restarts from default
// filters and the first page is searched.
// GET /rooms
func (h *RoomPageHandler) ListPage(c *gin.Context) {
	s := session.Current(c)
	view := h.views.Enter(s.ID)

	snap, err := view.Refresh(c.Request.Context(), s)
	if errors.Is(err, roomsearch.ErrStaleResult) {
		// A filter edit raced the first load; show whatever is newest.
		snap = view.Snapshot()
	}

	c.HTML(http.StatusOK, "room/list.html", gin.H{
		"User":         s,
		"View":         newResultsView(snap),
		"Availability": []roomsearch.Availability{roomsearch.AvailabilityAll, roomsearch.AvailabilityAvailable, roomsearch.AvailabilityUnavailable},
		"CSRFToken":    middleware.GetCSRFToken(c),
	})
}

// Filter applies one filter edit and answers with the refreshed results
// fragment.
//
//   - malformed values get an error toast and nothing is searched
//   - a response overtaken by a newer edit is dropped: 204 with no swap
//   - a failed search renders the error banner in place of the rooms
//
// POST /rooms/filters
func (h *RoomPageHandler) Filter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBind(&req); err != nil {
		pkg.ToastOnly(c, "Unknown filter", pkg.ToastError)
		return
	}
	mutate, err := roomsearch.FieldMutation(req.Field, req.Value)
	if err != nil {
		pkg.ToastOnly(c, domain.UserMessage(err, "Invalid filter value"), pkg.ToastError)
		return
	}

	s := session.Current(c)
	view, ok := h.views.Get(s.ID)
	if !ok {
		slog.DebugContext(c.Request.Context(), "room search view expired, starting a new one")
		view = h.views.Enter(s.ID)
	}

	snap, err := view.Update(c.Request.Context(), s, mutate)
	switch {
	case errors.Is(err, roomsearch.ErrStaleResult):
		c.Header("HX-Reswap", "none")
		c.Status(http.StatusNoContent)
		return
	case domain.IsInvalidFilterValue(err):
		pkg.ToastOnly(c, domain.UserMessage(err, "Invalid filter value"), pkg.ToastError)
		return
	}

	c.HTML(http.StatusOK, "room/_results.html", newResultsView(snap))
}

// DetailPage renders one room with the stay-length choices that lead to the
// booking form.
// GET /room/:id
func (h *RoomPageHandler) DetailPage(c *gin.Context) {
	s := session.Current(c)
	room, err := h.rooms.GetRoom(c.Request.Context(), s.BearerToken(), c.Param("id"))
	if err != nil {
		switch {
		case domain.IsNotFound(err):
			c.HTML(http.StatusNotFound, "errors/404.html", gin.H{})
		case domain.IsValidation(err):
			c.HTML(http.StatusBadRequest, "errors/400.html", gin.H{})
		default:
			c.HTML(domain.HTTPStatusCode(err), "room/detail.html", gin.H{
				"User":  s,
				"Error": domain.UserMessage(err, "Failed to load room details"),
			})
		}
		return
	}

	c.HTML(http.StatusOK, "room/detail.html", gin.H{
		"User":      s,
		"Room":      room,
		"Stays":     stayOptions,
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}
