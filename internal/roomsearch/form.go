package roomsearch

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

// Filter fields a page can change one at a time.
const (
	FieldSearch       = "search"
	FieldAvailability = "availability"
	FieldMinPrice     = "min_price"
	FieldMaxPrice     = "max_price"
	FieldCheckIn      = "check_in"
	FieldCheckOut     = "check_out"
	FieldClearDates   = "clear_dates"
	FieldPage         = "page"
)

// MaxPerPage bounds the page size a query may ask for.
const MaxPerPage = 100

// FieldMutation turns one form field edit into a Mutation. Values are parsed
// up front, so a malformed value fails here with InvalidFilterValue and
// nothing is scheduled.
//
// An empty price clears that bound; "0" sets it to zero. An empty date
// clears both dates for check-in and is ignored for check-out.
func FieldMutation(field, value string) (Mutation, error) {
	value = strings.TrimSpace(value)

	switch field {
	case FieldSearch:
		return func(f *Filter) error { f.SetSearchText(value); return nil }, nil

	case FieldAvailability:
		if _, err := ParseAvailability(value); err != nil {
			return nil, err
		}
		return func(f *Filter) error { return f.SetAvailability(value) }, nil

	case FieldMinPrice, FieldMaxPrice:
		v, set, err := ParsePrice(field, value)
		if err != nil {
			return nil, err
		}
		isMin := field == FieldMinPrice
		return func(f *Filter) error {
			switch {
			case !set && isMin:
				f.ClearMinPrice()
			case !set:
				f.ClearMaxPrice()
			case isMin:
				return f.SetMinPrice(v)
			default:
				return f.SetMaxPrice(v)
			}
			return nil
		}, nil

	case FieldCheckIn:
		if value == "" {
			return func(f *Filter) error { f.ClearDates(); return nil }, nil
		}
		d, err := ParseDate(field, value)
		if err != nil {
			return nil, err
		}
		return func(f *Filter) error { return f.SetCheckIn(d) }, nil

	case FieldCheckOut:
		if value == "" {
			return func(*Filter) error { return nil }, nil
		}
		d, err := ParseDate(field, value)
		if err != nil {
			return nil, err
		}
		return func(f *Filter) error { return f.SetCheckOut(d) }, nil

	case FieldClearDates:
		return func(f *Filter) error { f.ClearDates(); return nil }, nil

	case FieldPage:
		p, err := strconv.Atoi(value)
		if err != nil {
			return nil, invalidValue(field, value)
		}
		return func(f *Filter) error { f.GoToPage(p); return nil }, nil

	default:
		return nil, invalidValue("field", field)
	}
}

// ParsePrice reads a price bound. An empty string means "unset".
func ParsePrice(field, s string) (v float64, set bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false, invalidValue(field, s)
	}
	return v, true, nil
}

// ParseDate reads a YYYY-MM-DD calendar date.
func ParseDate(field, s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil || !d.IsValid() {
		return civil.Date{}, invalidValue(field, s)
	}
	return d, nil
}

// FilterFromQuery builds a filter from request query parameters named like
// the backend ones. It serves stateless callers that send a complete query
// every time: the requested page is taken as is and the backend decides
// whether it exists. per_page outside [1, MaxPerPage] falls back to
// defaultPerPage.
func FilterFromQuery(q url.Values, defaultPerPage int) (*Filter, error) {
	perPage := defaultPerPage
	if s := q.Get(ParamPerPage); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, invalidValue(ParamPerPage, s)
		}
		if n >= 1 && n <= MaxPerPage {
			perPage = n
		}
	}
	f := NewFilter(perPage)

	f.SetSearchText(q.Get(ParamSearch))

	switch s := strings.TrimSpace(q.Get(ParamAvailable)); s {
	case "":
	case "true":
		f.availability = AvailabilityAvailable
	case "false":
		f.availability = AvailabilityUnavailable
	default:
		if err := f.SetAvailability(s); err != nil {
			return nil, invalidValue(ParamAvailable, s)
		}
	}

	for _, name := range []string{ParamMinPrice, ParamMaxPrice} {
		m, err := FieldMutation(name, q.Get(name))
		if err != nil {
			return nil, err
		}
		if err := m(f); err != nil {
			return nil, err
		}
	}

	if s := q.Get(ParamCheckIn); s != "" {
		d, err := ParseDate(ParamCheckIn, s)
		if err != nil {
			return nil, err
		}
		if err := f.SetCheckIn(d); err != nil {
			return nil, err
		}
	}
	if s := q.Get(ParamCheckOut); s != "" {
		d, err := ParseDate(ParamCheckOut, s)
		if err != nil {
			return nil, err
		}
		if err := f.SetCheckOut(d); err != nil {
			return nil, err
		}
	}

	if s := q.Get(ParamPage); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil || p < 1 {
			return nil, invalidValue(ParamPage, s)
		}
		f.setLastPage(p)
		f.GoToPage(p)
	}
	return f, nil
}
