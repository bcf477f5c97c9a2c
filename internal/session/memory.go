package session

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/simp-lee/hotelweb/internal/domain"
)

// MemoryStore keeps sessions in process. Sessions are lost on restart.
type MemoryStore struct {
	cache *ccache.Cache[*domain.Session]
	now   func() time.Time
}

// NewMemoryStore creates an in-process store holding at most maxEntries
// sessions. Least recently used sessions are evicted first.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryStore{
		cache: ccache.New(ccache.Configure[*domain.Session]().MaxSize(int64(maxEntries))),
		now:   time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, s *domain.Session) error {
	ttl := remaining(s, m.now())
	if ttl <= 0 {
		return domain.NewAppError(domain.CodeValidation, "session already expired", nil)
	}
	cp := *s
	m.cache.Set(s.ID, &cp, ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	item := m.cache.Get(id)
	if item == nil || item.Expired() {
		return nil, ErrNotFound
	}
	cp := *item.Value()
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

// Close stops the cache's background worker.
func (m *MemoryStore) Close() error {
	m.cache.Stop()
	return nil
}
