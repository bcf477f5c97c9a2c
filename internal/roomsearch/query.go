package roomsearch

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names understood by the backend room search endpoint.
const (
	ParamPage      = "page"
	ParamPerPage   = "per_page"
	ParamAvailable = "available"
	ParamSearch    = "search"
	ParamMinPrice  = "min_price"
	ParamMaxPrice  = "max_price"
	ParamCheckIn   = "check_in"
	ParamCheckOut  = "check_out"
)

// BuildQuery projects f into backend query parameters. Defaults and unset
// values are omitted; page and per_page are always present. Dates are sent
// only as a pair, as calendar dates (YYYY-MM-DD).
//
// BuildQuery is pure: equal filters give equal parameter sets, and
// url.Values.Encode sorts by key, so encoded output is byte-identical.
func BuildQuery(f *Filter) url.Values {
	q := url.Values{}
	q.Set(ParamPage, strconv.Itoa(f.page))
	q.Set(ParamPerPage, strconv.Itoa(f.perPage))

	switch f.availability {
	case AvailabilityAvailable:
		q.Set(ParamAvailable, "true")
	case AvailabilityUnavailable:
		q.Set(ParamAvailable, "false")
	}

	if text := strings.TrimSpace(f.searchText); text != "" {
		q.Set(ParamSearch, text)
	}

	if f.minPrice != nil {
		q.Set(ParamMinPrice, formatPrice(*f.minPrice))
	}
	if f.maxPrice != nil {
		q.Set(ParamMaxPrice, formatPrice(*f.maxPrice))
	}

	if f.checkIn != nil && f.checkOut != nil {
		q.Set(ParamCheckIn, f.checkIn.String())
		q.Set(ParamCheckOut, f.checkOut.String())
	}

	return q
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
