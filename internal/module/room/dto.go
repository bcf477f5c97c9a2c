package room

import (
	"strconv"

	"github.com/simp-lee/hotelweb/internal/domain"
	"github.com/simp-lee/hotelweb/internal/pkg"
	"github.com/simp-lee/hotelweb/internal/roomsearch"
)

// FilterRequest is one filter edit posted by the rooms page.
type FilterRequest struct {
	Field string `form:"field" binding:"required"`
	Value string `form:"value"`
}

// filterForm holds the filter values as the page's inputs show them.
type filterForm struct {
	Search       string
	Availability string
	MinPrice     string
	MaxPrice     string
	CheckIn      string
	CheckOut     string
}

// resultsView is what room/_results.html renders.
type resultsView struct {
	Filter   filterForm
	Rooms    []domain.Room
	Result   *domain.RoomSearchResult
	Page     int
	LastPage int
	Pages    []pkg.PageLink
	Failed   bool
	Error    string
	Empty    bool
}

func newResultsView(snap roomsearch.Snapshot) resultsView {
	f := snap.Filter
	form := filterForm{
		Search:       f.SearchText(),
		Availability: string(f.Availability()),
	}
	if v, ok := f.MinPrice(); ok {
		form.MinPrice = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v, ok := f.MaxPrice(); ok {
		form.MaxPrice = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if d, ok := f.CheckIn(); ok {
		form.CheckIn = d.String()
	}
	if d, ok := f.CheckOut(); ok {
		form.CheckOut = d.String()
	}

	rv := resultsView{
		Filter:   form,
		Result:   snap.Result,
		Page:     f.Page(),
		LastPage: f.LastPage(),
		Pages:    pkg.PageWindow(f.Page(), f.LastPage(), 2),
	}
	switch snap.State {
	case roomsearch.StateFailed:
		rv.Failed = true
		rv.Error = domain.UserMessage(snap.Err, domain.ErrSearchFailed.Message)
	case roomsearch.StateSucceeded:
		rv.Rooms = snap.Result.Items
		rv.Empty = snap.Result.Empty()
	}
	return rv
}

// stayOptions are the stay lengths offered on the room page.
var stayOptions = []int{1, 2, 3, 4, 5, 6, 7, 10, 14}
