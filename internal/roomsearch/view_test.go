package roomsearch

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/simp-lee/hotelweb/internal/domain"
)

// recordingSearcher answers immediately and records every query it saw.
type recordingSearcher struct {
	mu       sync.Mutex
	queries  []string
	lastPage int
	err      error
}

func (s *recordingSearcher) Search(_ context.Context, _ domain.TokenSource, params url.Values) (*domain.RoomSearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, params.Encode())
	if s.err != nil {
		return nil, s.err
	}
	last := s.lastPage
	if last == 0 {
		last = 1
	}
	return &domain.RoomSearchResult{
		Items:    []domain.Room{{ExternalID: params.Get(ParamSearch)}},
		Page:     intParam(params, ParamPage, 1),
		PerPage:  4,
		LastPage: last,
	}, nil
}

func (s *recordingSearcher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// gatedSearcher blocks each search until the test releases the reply keyed
// by the search text.
type gatedSearcher struct {
	started chan string
	replies map[string]chan *domain.RoomSearchResult
}

func (g *gatedSearcher) Search(_ context.Context, _ domain.TokenSource, params url.Values) (*domain.RoomSearchResult, error) {
	key := params.Get(ParamSearch)
	g.started <- key
	return <-g.replies[key], nil
}

func setSearch(text string) Mutation {
	return func(f *Filter) error {
		f.SetSearchText(text)
		return nil
	}
}

func TestView_InitialState(t *testing.T) {
	v := NewView(&recordingSearcher{}, 4, nil)

	snap := v.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("expected idle, got %s", snap.State)
	}
	if snap.Result != nil {
		t.Error("expected no result before the first search")
	}
}

func TestView_RefreshSucceeds(t *testing.T) {
	s := &recordingSearcher{lastPage: 3}
	v := NewView(s, 4, nil)

	snap, err := v.Refresh(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateSucceeded {
		t.Errorf("expected succeeded, got %s", snap.State)
	}
	if snap.Filter.LastPage() != 3 {
		t.Errorf("expected last page 3, got %d", snap.Filter.LastPage())
	}
	if snap.Generation != 1 {
		t.Errorf("expected generation 1, got %d", snap.Generation)
	}
}

func TestView_MutationTriggersOneSearch(t *testing.T) {
	s := &recordingSearcher{}
	v := NewView(s, 4, nil)
	ctx := context.Background()
	if _, err := v.Refresh(ctx, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := v.Update(ctx, nil, setSearch("suite")); err != nil {
		t.Fatal(err)
	}
	if s.count() != 2 {
		t.Fatalf("expected 2 searches, got %d", s.count())
	}
	if got := s.queries[1]; got != "page=1&per_page=4&search=suite" {
		t.Errorf("unexpected query %s", got)
	}
}

func TestView_UnchangedQuerySkipsSearch(t *testing.T) {
	s := &recordingSearcher{}
	v := NewView(s, 4, nil)
	ctx := context.Background()
	if _, err := v.Refresh(ctx, nil); err != nil {
		t.Fatal(err)
	}

	// Whitespace search text and a rejected check-out leave the query as is.
	if _, err := v.Update(ctx, nil, setSearch("  ")); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Update(ctx, nil, func(f *Filter) error {
		return f.SetCheckOut(date(t, "2025-06-01"))
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Update(ctx, nil, func(f *Filter) error {
		f.GoToPage(9)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if s.count() != 1 {
		t.Errorf("expected only the initial search, got %d", s.count())
	}
}

func TestView_InvalidMutationLeavesFilter(t *testing.T) {
	s := &recordingSearcher{}
	v := NewView(s, 4, nil)
	ctx := context.Background()

	_, err := v.Update(ctx, nil, func(f *Filter) error {
		f.SetSearchText("half applied")
		return f.SetAvailability("sometimes")
	})
	if !domain.IsInvalidFilterValue(err) {
		t.Fatalf("expected InvalidFilterValue, got %v", err)
	}
	if s.count() != 0 {
		t.Errorf("expected no search, got %d", s.count())
	}
	if got := v.Snapshot().Filter.SearchText(); got != "" {
		t.Errorf("rejected mutation leaked search text %q", got)
	}
}

func TestView_FailureState(t *testing.T) {
	s := &recordingSearcher{err: domain.NewAppError(domain.CodeSearchFailed, "backend down", nil)}
	v := NewView(s, 4, nil)

	snap, err := v.Refresh(context.Background(), nil)
	if !domain.IsSearchFailed(err) {
		t.Fatalf("expected SearchFailed, got %v", err)
	}
	if snap.State != StateFailed {
		t.Errorf("expected failed, got %s", snap.State)
	}
	if snap.Err == nil || snap.Result != nil {
		t.Errorf("expected error and no result, got %+v", snap)
	}
	if s.count() != 1 {
		t.Errorf("failed search must not be retried, got %d calls", s.count())
	}
}

func TestView_PageClampedWhenResultsShrink(t *testing.T) {
	s := &recordingSearcher{lastPage: 5}
	v := NewView(s, 4, nil)
	ctx := context.Background()
	if _, err := v.Refresh(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Update(ctx, nil, func(f *Filter) error {
		f.GoToPage(5)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	s.mu.Lock()
	s.lastPage = 2
	s.mu.Unlock()

	snap, err := v.Update(ctx, nil, setSearch("deluxe"))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Filter.Page() != 2 || snap.Filter.LastPage() != 2 {
		t.Errorf("expected page 2 of 2, got %d of %d", snap.Filter.Page(), snap.Filter.LastPage())
	}
}

func TestView_StaleResponseDiscarded(t *testing.T) {
	g := &gatedSearcher{
		started: make(chan string),
		replies: map[string]chan *domain.RoomSearchResult{
			"A": make(chan *domain.RoomSearchResult, 1),
			"B": make(chan *domain.RoomSearchResult, 1),
		},
	}
	v := NewView(g, 4, nil)
	ctx := context.Background()

	type outcome struct {
		snap Snapshot
		err  error
	}
	doneA := make(chan outcome, 1)
	doneB := make(chan outcome, 1)

	go func() {
		snap, err := v.Update(ctx, nil, setSearch("A"))
		doneA <- outcome{snap, err}
	}()
	waitStarted(t, g.started, "A")

	go func() {
		snap, err := v.Update(ctx, nil, setSearch("B"))
		doneB <- outcome{snap, err}
	}()
	waitStarted(t, g.started, "B")

	if got := v.Snapshot(); !got.Loading() {
		t.Errorf("expected loading while searches are in flight, got %s", got.State)
	}

	// B answers first, then A.
	g.replies["B"] <- &domain.RoomSearchResult{Items: []domain.Room{{ExternalID: "B"}}, Page: 1, LastPage: 1}
	b := <-doneB
	if b.err != nil {
		t.Fatalf("B: unexpected error %v", b.err)
	}

	g.replies["A"] <- &domain.RoomSearchResult{Items: []domain.Room{{ExternalID: "A"}}, Page: 1, LastPage: 1}
	a := <-doneA
	if !errors.Is(a.err, ErrStaleResult) {
		t.Fatalf("A: expected ErrStaleResult, got %v", a.err)
	}

	final := v.Snapshot()
	if final.State != StateSucceeded {
		t.Errorf("expected succeeded, got %s", final.State)
	}
	if len(final.Result.Items) != 1 || final.Result.Items[0].ExternalID != "B" {
		t.Errorf("expected B's result to stay displayed, got %+v", final.Result.Items)
	}
	if final.Filter.SearchText() != "B" {
		t.Errorf("expected filter text B, got %q", final.Filter.SearchText())
	}
}

func TestView_OlderResponseFirstStillDiscarded(t *testing.T) {
	g := &gatedSearcher{
		started: make(chan string),
		replies: map[string]chan *domain.RoomSearchResult{
			"A": make(chan *domain.RoomSearchResult, 1),
			"B": make(chan *domain.RoomSearchResult, 1),
		},
	}
	v := NewView(g, 4, nil)
	ctx := context.Background()

	errA := make(chan error, 1)
	errB := make(chan error, 1)
	go func() {
		_, err := v.Update(ctx, nil, setSearch("A"))
		errA <- err
	}()
	waitStarted(t, g.started, "A")
	go func() {
		_, err := v.Update(ctx, nil, setSearch("B"))
		errB <- err
	}()
	waitStarted(t, g.started, "B")

	g.replies["A"] <- &domain.RoomSearchResult{Items: []domain.Room{{ExternalID: "A"}}, Page: 1, LastPage: 1}
	if err := <-errA; !errors.Is(err, ErrStaleResult) {
		t.Fatalf("A: expected ErrStaleResult, got %v", err)
	}
	if v.Snapshot().Result != nil {
		t.Error("superseded response must not be displayed")
	}

	g.replies["B"] <- &domain.RoomSearchResult{Items: []domain.Room{{ExternalID: "B"}}, Page: 1, LastPage: 1}
	if err := <-errB; err != nil {
		t.Fatal(err)
	}
	if got := v.Snapshot().Result.Items[0].ExternalID; got != "B" {
		t.Errorf("expected B, got %s", got)
	}
}

func waitStarted(t *testing.T, started <-chan string, want string) {
	t.Helper()
	select {
	case got := <-started:
		if got != want {
			t.Fatalf("expected search %q to start, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("search %q never started", want)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateIdle:      "idle",
		StateLoading:   "loading",
		StateSucceeded: "succeeded",
		StateFailed:    "failed",
		State(42):      "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
