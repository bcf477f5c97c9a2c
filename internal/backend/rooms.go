package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/simp-lee/hotelweb/internal/domain"
)

const (
	msgSearchRooms = "failed to search rooms"
	msgRoomDetails = "failed to load room details"
)

// roomPage is the backend's paginated room payload.
type roomPage struct {
	Page     int           `json:"page"`
	Limit    int           `json:"limit"`
	LastPage int           `json:"last_page"`
	Items    []domain.Room `json:"items"`
}

// FilterRooms runs a room search with the given query parameters.
func (c *Client) FilterRooms(ctx context.Context, token string, params url.Values) (*domain.RoomSearchResult, error) {
	var page roomPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     c.roomsPath,
		token:    token,
		query:    params,
		fallback: msgSearchRooms,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &domain.RoomSearchResult{
		Items:    page.Items,
		Page:     page.Page,
		PerPage:  page.Limit,
		LastPage: page.LastPage,
	}, nil
}

// GetRoom loads one room by its external ID. Successful lookups are cached
// when the room cache is enabled.
func (c *Client) GetRoom(ctx context.Context, token, externalID string) (*domain.Room, error) {
	externalID = strings.TrimSpace(externalID)
	segment, ok := pathSegment(externalID)
	if !ok {
		return nil, domain.NewAppError(domain.CodeValidation, "room id is required", nil)
	}

	if c.rooms != nil {
		if item := c.rooms.Get(externalID); item != nil && !item.Expired() {
			room := *item.Value()
			return &room, nil
		}
	}

	var room domain.Room
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     c.roomsPath + segment,
		token:    token,
		fallback: msgRoomDetails,
	}, &room)
	if err != nil {
		return nil, err
	}
	if room.ExternalID == "" {
		room.ExternalID = externalID
	}

	if c.rooms != nil {
		cached := room
		c.rooms.Set(externalID, &cached, c.cacheTTL)
	}
	return &room, nil
}
