// Package session keeps logged-in browser sessions on the server. The
// browser only carries an opaque session ID; the backend bearer token stays
// in a Store.
package session

import (
	"context"
	"time"

	"github.com/simp-lee/hotelweb/internal/domain"
)

// ErrNotFound is returned by stores for unknown or expired sessions.
var ErrNotFound = domain.NewAppError(domain.CodeNotFound, "session not found", nil)

// Store persists sessions by ID.
type Store interface {
	Save(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by stores backed by an external service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is implemented by stores that hold connections or goroutines.
type Closer interface {
	Close() error
}

// remaining returns how long s stays valid at now, or 0 when expired.
func remaining(s *domain.Session, now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
