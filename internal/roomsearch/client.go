package roomsearch

import (
	"context"
	"net/url"
	"strconv"

	"github.com/simp-lee/hotelweb/internal/domain"
)

// RoomFinder is the backend capability the search client relies on.
type RoomFinder interface {
	FilterRooms(ctx context.Context, token string, params url.Values) (*domain.RoomSearchResult, error)
}

// Searcher runs one room search for already built parameters.
type Searcher interface {
	Search(ctx context.Context, tokens domain.TokenSource, params url.Values) (*domain.RoomSearchResult, error)
}

// Client issues room searches against the backend. It does not retry.
type Client struct {
	finder RoomFinder
}

// NewClient creates a search client over finder.
func NewClient(finder RoomFinder) *Client {
	return &Client{finder: finder}
}

// Search sends params with the bearer token from tokens. Any failure comes
// back as a SearchFailed error carrying the backend message when one was
// supplied.
func (c *Client) Search(ctx context.Context, tokens domain.TokenSource, params url.Values) (*domain.RoomSearchResult, error) {
	var token string
	if tokens != nil {
		token = tokens.BearerToken()
	}

	res, err := c.finder.FilterRooms(ctx, token, params)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeSearchFailed,
			domain.UserMessage(err, domain.ErrSearchFailed.Message), err)
	}
	if res == nil {
		return nil, domain.ErrSearchFailed
	}
	return normalizeResult(res, params), nil
}

// normalizeResult fills fields the backend left at zero so the view can rely
// on 1 <= Page <= LastPage and a non-nil Items slice.
func normalizeResult(res *domain.RoomSearchResult, params url.Values) *domain.RoomSearchResult {
	out := *res
	if out.Items == nil {
		out.Items = []domain.Room{}
	}
	if out.Page < 1 {
		out.Page = intParam(params, ParamPage, 1)
	}
	if out.PerPage < 1 {
		out.PerPage = intParam(params, ParamPerPage, DefaultPerPage)
	}
	if out.LastPage < 1 {
		out.LastPage = 1
	}
	return &out
}

func intParam(params url.Values, key string, def int) int {
	n, err := strconv.Atoi(params.Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
