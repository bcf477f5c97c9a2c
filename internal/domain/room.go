package domain

// Room is a bookable room as returned by the backend.
type Room struct {
	ExternalID  string   `json:"external_id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Available   bool     `json:"available"`
	Amenities   []string `json:"amenities,omitempty"`
	Description string   `json:"description,omitempty"`
}

// RoomSearchResult is one page of rooms. Each successful search replaces the
// previous result entirely.
type RoomSearchResult struct {
	Items    []Room `json:"items"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
	LastPage int    `json:"last_page"`
}

// Empty reports whether the page holds no rooms. An empty page is a valid
// result, not an error.
func (r *RoomSearchResult) Empty() bool {
	return r == nil || len(r.Items) == 0
}

// HasPrev reports whether a previous page exists.
func (r *RoomSearchResult) HasPrev() bool {
	return r != nil && r.Page > 1
}

// HasNext reports whether a following page exists.
func (r *RoomSearchResult) HasNext() bool {
	return r != nil && r.Page < r.LastPage
}
