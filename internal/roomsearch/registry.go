package roomsearch

import (
	"log/slog"
	"time"

	"github.com/karlseguin/ccache/v3"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	PerPage  int
	TTL      time.Duration
	MaxViews int64
	Logger   *slog.Logger
}

// Registry keeps one View per browser session. Views idle for longer than
// TTL are dropped.
type Registry struct {
	views    *ccache.Cache[*View]
	searcher Searcher
	perPage  int
	ttl      time.Duration
	logger   *slog.Logger
}

// NewRegistry creates a registry whose views search through searcher.
func NewRegistry(searcher Searcher, opts RegistryOptions) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.MaxViews <= 0 {
		opts.MaxViews = 10000
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		views:    ccache.New(ccache.Configure[*View]().MaxSize(opts.MaxViews)),
		searcher: searcher,
		perPage:  opts.PerPage,
		ttl:      opts.TTL,
		logger:   opts.Logger,
	}
}

// Enter creates a fresh view for key with default filters, replacing any
// previous one. Entering the search screen always starts from defaults.
func (r *Registry) Enter(key string) *View {
	v := NewView(r.searcher, r.perPage, r.logger)
	r.views.Set(key, v, r.ttl)
	return v
}

// Get returns the live view for key and extends its lifetime.
func (r *Registry) Get(key string) (*View, bool) {
	item := r.views.Get(key)
	if item == nil || item.Expired() {
		return nil, false
	}
	item.Extend(r.ttl)
	return item.Value(), true
}

// Exit drops the view for key.
func (r *Registry) Exit(key string) {
	r.views.Delete(key)
}

// Stop releases the registry's background goroutine.
func (r *Registry) Stop() {
	r.views.Stop()
}
