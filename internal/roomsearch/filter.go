// Package roomsearch holds the room availability search pipeline: the filter
// state model, the projection of that state into backend query parameters,
// and a search view that keeps the displayed result in step with the most
// recently issued query.
package roomsearch

import (
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/simp-lee/hotelweb/internal/domain"
)

// DefaultPerPage is the page size used when none is configured.
const DefaultPerPage = 4

// Availability is the availability filter.
type Availability string

// Recognized availability filter values.
const (
	AvailabilityAll         Availability = "all"
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
)

// ParseAvailability validates an availability filter value.
func ParseAvailability(s string) (Availability, error) {
	switch a := Availability(strings.TrimSpace(s)); a {
	case AvailabilityAll, AvailabilityAvailable, AvailabilityUnavailable:
		return a, nil
	default:
		return "", invalidValue("availability", s)
	}
}

// Filter is the in-memory record of every search criterion the guest has
// selected. The zero value is not usable; create one with NewFilter.
//
// Invariants:
//   - when both dates are set, check-out is strictly after check-in;
//   - 1 <= page <= lastPage.
type Filter struct {
	searchText   string
	availability Availability
	minPrice     *float64
	maxPrice     *float64
	checkIn      *civil.Date
	checkOut     *civil.Date
	page         int
	perPage      int
	lastPage     int
}

// NewFilter returns a filter with defaults: empty search, availability
// "all", no price bounds, no dates, page 1. perPage values below 1 fall
// back to DefaultPerPage.
func NewFilter(perPage int) *Filter {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return &Filter{
		availability: AvailabilityAll,
		page:         1,
		perPage:      perPage,
		lastPage:     1,
	}
}

// Clone returns a deep copy of f.
func (f *Filter) Clone() *Filter {
	c := *f
	c.minPrice = cloneFloat(f.minPrice)
	c.maxPrice = cloneFloat(f.maxPrice)
	c.checkIn = cloneDate(f.checkIn)
	c.checkOut = cloneDate(f.checkOut)
	return &c
}

// SearchText returns the search text as typed.
func (f *Filter) SearchText() string { return f.searchText }

// Availability returns the availability filter.
func (f *Filter) Availability() Availability { return f.availability }

// Page returns the current page, 1-based.
func (f *Filter) Page() int { return f.page }

// PerPage returns the fixed page size.
func (f *Filter) PerPage() int { return f.perPage }

// LastPage returns the page count of the latest result, at least 1.
func (f *Filter) LastPage() int { return f.lastPage }

// MinPrice returns the lower price bound and whether it was set.
func (f *Filter) MinPrice() (float64, bool) { return derefFloat(f.minPrice) }

// MaxPrice returns the upper price bound and whether it was set.
func (f *Filter) MaxPrice() (float64, bool) { return derefFloat(f.maxPrice) }

// CheckIn returns the check-in date and whether it was set.
func (f *Filter) CheckIn() (civil.Date, bool) { return derefDate(f.checkIn) }

// CheckOut returns the check-out date and whether it was set.
func (f *Filter) CheckOut() (civil.Date, bool) { return derefDate(f.checkOut) }

// SetSearchText replaces the search text unconditionally.
func (f *Filter) SetSearchText(text string) {
	f.searchText = text
}

// SetAvailability replaces the availability filter. Values other than
// all/available/unavailable fail with an InvalidFilterValue error.
func (f *Filter) SetAvailability(value string) error {
	a, err := ParseAvailability(value)
	if err != nil {
		return err
	}
	f.availability = a
	return nil
}

// SetMinPrice sets the lower price bound. Zero is a real bound. No ordering
// against the upper bound is enforced.
func (f *Filter) SetMinPrice(v float64) error {
	if err := checkPrice("min_price", v); err != nil {
		return err
	}
	f.minPrice = &v
	return nil
}

// SetMaxPrice sets the upper price bound. Zero is a real bound.
func (f *Filter) SetMaxPrice(v float64) error {
	if err := checkPrice("max_price", v); err != nil {
		return err
	}
	f.maxPrice = &v
	return nil
}

// ClearMinPrice removes the lower price bound.
func (f *Filter) ClearMinPrice() { f.minPrice = nil }

// ClearMaxPrice removes the upper price bound.
func (f *Filter) ClearMaxPrice() { f.maxPrice = nil }

// SetCheckIn sets the check-in date. When the new check-in is on or after
// the current check-out, check-out moves to the day after check-in.
func (f *Filter) SetCheckIn(d civil.Date) error {
	if !d.IsValid() {
		return invalidValue("check_in", d.String())
	}
	f.checkIn = &d
	if f.checkOut != nil && !f.checkOut.After(d) {
		next := d.AddDays(1)
		f.checkOut = &next
	}
	return nil
}

// SetCheckOut sets the check-out date only when it is strictly after the
// current check-in. Otherwise, including when no check-in is set, the call
// leaves the filter unchanged and reports no error.
func (f *Filter) SetCheckOut(d civil.Date) error {
	if !d.IsValid() {
		return invalidValue("check_out", d.String())
	}
	if f.checkIn == nil || !d.After(*f.checkIn) {
		return nil
	}
	f.checkOut = &d
	return nil
}

// ClearDates removes both dates.
func (f *Filter) ClearDates() {
	f.checkIn = nil
	f.checkOut = nil
}

// GoToPage moves to page p when 1 <= p <= LastPage; other values are ignored.
func (f *Filter) GoToPage(p int) {
	if p < 1 || p > f.lastPage {
		return
	}
	f.page = p
}

// setLastPage records the page count reported by the latest result and
// pulls the current page back into range.
func (f *Filter) setLastPage(n int) {
	if n < 1 {
		n = 1
	}
	f.lastPage = n
	if f.page > n {
		f.page = n
	}
}

func checkPrice(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalidValue(field, fmt.Sprint(v))
	}
	return nil
}

func invalidValue(field, value string) error {
	return domain.NewAppError(domain.CodeInvalidFilterValue,
		fmt.Sprintf("invalid %s value %q", field, value), nil)
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneDate(p *civil.Date) *civil.Date {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func derefFloat(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func derefDate(p *civil.Date) (civil.Date, bool) {
	if p == nil {
		return civil.Date{}, false
	}
	return *p, true
}
