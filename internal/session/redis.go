package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/simp-lee/hotelweb/internal/domain"
)

const redisKeyPrefix = "hotelweb:session:"

// RedisStore keeps sessions in Redis as JSON with a TTL matching expiry.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (r *RedisStore) Save(ctx context.Context, s *domain.Session) error {
	ttl := remaining(s, r.now())
	if ttl <= 0 {
		return domain.NewAppError(domain.CodeValidation, "session already expired", nil)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to encode session", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+s.ID, data, ttl).Err(); err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to save session", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to load session", err)
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to decode session", err)
	}
	if s.Expired(r.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to delete session", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
