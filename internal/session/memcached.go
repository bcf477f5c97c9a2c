package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/simp-lee/hotelweb/internal/domain"
)

const (
	memcachedKeyPrefix = "hotelweb_session_"
	// memcached reads expirations above 30 days as unix timestamps.
	memcachedMaxRelative = 30 * 24 * time.Hour
)

// MemcachedStore keeps sessions in memcached as JSON.
type MemcachedStore struct {
	client *memcache.Client
	now    func() time.Time
}

// NewMemcachedStore creates a store over the given memcached servers.
func NewMemcachedStore(servers ...string) *MemcachedStore {
	return &MemcachedStore{client: memcache.New(servers...), now: time.Now}
}

func (m *MemcachedStore) Save(_ context.Context, s *domain.Session) error {
	now := m.now()
	ttl := remaining(s, now)
	if ttl <= 0 {
		return domain.NewAppError(domain.CodeValidation, "session already expired", nil)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to encode session", err)
	}
	err = m.client.Set(&memcache.Item{
		Key:        memcachedKeyPrefix + s.ID,
		Value:      data,
		Expiration: memcachedExpiration(ttl, s.ExpiresAt),
	})
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to save session", err)
	}
	return nil
}

func (m *MemcachedStore) Get(_ context.Context, id string) (*domain.Session, error) {
	item, err := m.client.Get(memcachedKeyPrefix + id)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to load session", err)
	}
	var s domain.Session
	if err := json.Unmarshal(item.Value, &s); err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to decode session", err)
	}
	if s.Expired(m.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemcachedStore) Delete(_ context.Context, id string) error {
	err := m.client.Delete(memcachedKeyPrefix + id)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return domain.NewAppError(domain.CodeInternal, "failed to delete session", err)
	}
	return nil
}

func (m *MemcachedStore) Ping(_ context.Context) error {
	return m.client.Ping()
}

func memcachedExpiration(ttl time.Duration, expiresAt time.Time) int32 {
	if ttl > memcachedMaxRelative {
		return int32(expiresAt.Unix())
	}
	secs := int32(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
