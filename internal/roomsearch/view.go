package roomsearch

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/simp-lee/hotelweb/internal/domain"
)

// ErrStaleResult is returned for a search whose response arrived after a
// newer search was issued. The response has been discarded.
var ErrStaleResult = errors.New("roomsearch: stale result discarded")

// State is the lifecycle of the latest search issued by a View.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of a view's state.
type Snapshot struct {
	Filter     *Filter
	Query      url.Values
	Result     *domain.RoomSearchResult
	State      State
	Err        error
	Generation uint64
}

// Loading reports whether a search is in flight.
func (s Snapshot) Loading() bool { return s.State == StateLoading }

// Mutation changes a filter in place.
type Mutation func(*Filter) error

// View is one guest's search screen: a filter, the result of the latest
// search, and the generation counter that orders searches.
//
// Searches run outside the lock, so two requests for the same view may be
// in flight at once. Every issued search gets the next generation and only
// the response carrying the latest generation is applied.
type View struct {
	searcher Searcher
	logger   *slog.Logger

	mu     sync.Mutex
	filter *Filter
	result *domain.RoomSearchResult
	state  State
	err    error
	issued uint64
}

// NewView creates a view in the Idle state with a default filter.
func NewView(searcher Searcher, perPage int, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{
		searcher: searcher,
		logger:   logger,
		filter:   NewFilter(perPage),
	}
}

// Snapshot returns the current state without searching.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Update applies mutate to the filter and, when the built query changed,
// runs exactly one search. A mutation error leaves the filter untouched and
// schedules nothing. An unchanged query on a view that has already searched
// returns the current snapshot.
func (v *View) Update(ctx context.Context, tokens domain.TokenSource, mutate Mutation) (Snapshot, error) {
	v.mu.Lock()
	before := BuildQuery(v.filter).Encode()
	next := v.filter.Clone()
	if err := mutate(next); err != nil {
		snap := v.snapshotLocked()
		v.mu.Unlock()
		return snap, err
	}
	v.filter = next
	if BuildQuery(next).Encode() == before && v.state != StateIdle {
		snap := v.snapshotLocked()
		v.mu.Unlock()
		return snap, nil
	}
	gen, params := v.issueLocked()
	v.mu.Unlock()

	return v.run(ctx, tokens, gen, params)
}

// Refresh runs a search for the current filter regardless of whether it
// changed.
func (v *View) Refresh(ctx context.Context, tokens domain.TokenSource) (Snapshot, error) {
	v.mu.Lock()
	gen, params := v.issueLocked()
	v.mu.Unlock()

	return v.run(ctx, tokens, gen, params)
}

func (v *View) issueLocked() (uint64, url.Values) {
	v.issued++
	v.state = StateLoading
	v.err = nil
	return v.issued, BuildQuery(v.filter)
}

func (v *View) run(ctx context.Context, tokens domain.TokenSource, gen uint64, params url.Values) (Snapshot, error) {
	res, err := v.searcher.Search(ctx, tokens, params)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.issued {
		v.logger.DebugContext(ctx, "discarding stale room search result",
			"generation", gen, "latest", v.issued)
		return Snapshot{}, ErrStaleResult
	}

	if err != nil {
		v.state = StateFailed
		v.err = err
		v.result = nil
		v.logger.WarnContext(ctx, "room search failed", "generation", gen, "error", err)
		return v.snapshotLocked(), err
	}

	v.state = StateSucceeded
	v.result = res
	v.filter.setLastPage(res.LastPage)
	return v.snapshotLocked(), nil
}

func (v *View) snapshotLocked() Snapshot {
	return Snapshot{
		Filter:     v.filter.Clone(),
		Query:      BuildQuery(v.filter),
		Result:     v.result,
		State:      v.state,
		Err:        v.err,
		Generation: v.issued,
	}
}
