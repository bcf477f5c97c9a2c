package pkg

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageLink is one entry of a pagination bar. Gap entries stand for a run of
// skipped pages.
type PageLink struct {
	Number  int
	Current bool
	Gap     bool
}

// PageWindow returns the links for a pagination bar: the first and last
// page, the pages within radius of current, and gaps in between. current is
// clamped into [1, last].
func PageWindow(current, last, radius int) []PageLink {
	if last < 1 {
		last = 1
	}
	if current < 1 {
		current = 1
	}
	if current > last {
		current = last
	}
	if radius < 0 {
		radius = 0
	}

	links := make([]PageLink, 0, 2*radius+5)
	prev := 0
	for p := 1; p <= last; p++ {
		if p != 1 && p != last && (p < current-radius || p > current+radius) {
			continue
		}
		if prev != 0 && p > prev+1 {
			links = append(links, PageLink{Gap: true})
		}
		links = append(links, PageLink{Number: p, Current: p == current})
		prev = p
	}
	return links
}

// QueryInt reads a positive integer query parameter, returning def when it
// is missing or invalid.
func QueryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
