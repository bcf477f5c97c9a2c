package session

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/simp-lee/hotelweb/internal/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func newSession(id string, expiresIn time.Duration) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:        id,
		Token:     "tok-" + id,
		UserID:    "u-" + id,
		Username:  "guest",
		Email:     "guest@example.com",
		CreatedAt: now,
		ExpiresAt: now.Add(expiresIn),
	}
}

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	s := newSession("s1", time.Hour)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Token != "tok-s1" || got.UserID != "u-s1" || got.Email != "guest@example.com" {
		t.Errorf("unexpected session %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); !domain.IsNotFound(err) {
		t.Errorf("Get(missing): expected not found, got %v", err)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !domain.IsNotFound(err) {
		t.Errorf("Get after Delete: expected not found, got %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}

	if err := store.Save(ctx, newSession("old", -time.Minute)); !domain.IsValidation(err) {
		t.Errorf("Save(expired): expected validation error, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(100)
	defer store.Close()
	storeContract(t, store)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	s := newSession("s2", time.Hour)
	_ = store.Save(ctx, s)
	s.Token = "mutated"

	got, _ := store.Get(ctx, "s2")
	got.Username = "changed"
	again, _ := store.Get(ctx, "s2")

	if again.Token != "tok-s2" || again.Username != "guest" {
		t.Errorf("store shares memory with callers: %+v", again)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(10)
	defer store.Close()
	ctx := context.Background()

	_ = store.Save(ctx, newSession("short", 30*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); !domain.IsNotFound(err) {
		t.Errorf("expected expired session to be gone, got %v", err)
	}
}

func TestDatabaseStore(t *testing.T) {
	store, err := NewDatabaseStore(setupTestDB(t))
	if err != nil {
		t.Fatalf("NewDatabaseStore: %v", err)
	}
	storeContract(t, store)

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestDatabaseStore_SaveOverwrites(t *testing.T) {
	store, err := NewDatabaseStore(setupTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	s := newSession("s3", time.Hour)
	_ = store.Save(ctx, s)
	s.Token = "rotated"
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := store.Get(ctx, "s3")
	if err != nil {
		t.Fatal(err)
	}
	if got.Token != "rotated" {
		t.Errorf("expected rotated token, got %q", got.Token)
	}
}

func TestDatabaseStore_ExpiredHiddenAndPurged(t *testing.T) {
	store, err := NewDatabaseStore(setupTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	_ = store.Save(ctx, newSession("live", time.Hour))
	_ = store.Save(ctx, newSession("stale", time.Hour))

	// Move the store's clock past the sessions' expiry.
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := store.Get(ctx, "live"); !domain.IsNotFound(err) {
		t.Errorf("expected expired session hidden, got %v", err)
	}
	n, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 purged sessions, got %d", n)
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewRedisStore(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestMemcachedExpiration(t *testing.T) {
	now := time.Now()

	if got := memcachedExpiration(90*time.Second, now.Add(90*time.Second)); got != 90 {
		t.Errorf("expected relative 90, got %d", got)
	}
	if got := memcachedExpiration(200*time.Millisecond, now); got != 1 {
		t.Errorf("expected minimum of 1 second, got %d", got)
	}

	far := now.Add(45 * 24 * time.Hour)
	if got := memcachedExpiration(45*24*time.Hour, far); got != int32(far.Unix()) {
		t.Errorf("expected absolute unix time %d, got %d", far.Unix(), got)
	}
}
