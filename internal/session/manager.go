package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/hotelweb/internal/domain"
	"github.com/simp-lee/hotelweb/internal/pkg"
)

const ginContextKey = "session"

type contextKey struct{}

// Options configures a Manager.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	LoginPath  string
	Logger     *slog.Logger
}

// Manager creates, loads and destroys sessions and keeps the session cookie
// in step with the store.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	loginPath  string
	logger     *slog.Logger
	now        func() time.Time
}

// NewManager creates a manager over store.
func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "hotel_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		store:      store,
		cookieName: opts.CookieName,
		ttl:        opts.TTL,
		secure:     opts.Secure,
		loginPath:  opts.LoginPath,
		logger:     opts.Logger,
		now:        time.Now,
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store { return m.store }

// Create stores a new session for a successful login and sets the cookie.
// The session expires after the configured TTL or when the backend token
// expires, whichever comes first.
func (m *Manager) Create(c *gin.Context, s domain.Session) (*domain.Session, error) {
	if s.Token == "" {
		return nil, domain.NewAppError(domain.CodeUnauthorized, "login returned no token", nil)
	}

	now := m.now()
	s.ID = uuid.NewString()
	s.CreatedAt = now
	s.ExpiresAt = now.Add(m.ttl)
	if exp, ok := tokenExpiry(s.Token); ok && exp.Before(s.ExpiresAt) {
		s.ExpiresAt = exp
	}
	if !s.ExpiresAt.After(now) {
		return nil, domain.NewAppError(domain.CodeUnauthorized, "login token already expired", nil)
	}

	if err := m.store.Save(c.Request.Context(), &s); err != nil {
		return nil, err
	}
	m.setCookie(c, s.ID, int(s.ExpiresAt.Sub(now)/time.Second))
	m.attach(c, &s)
	return &s, nil
}

// Load attaches the session named by the request cookie, if any, to the
// gin context and the request context. Unknown or expired cookies are
// cleared. Load never aborts the request.
func (m *Manager) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(m.cookieName)
		if err != nil || id == "" {
			c.Next()
			return
		}

		s, err := m.store.Get(c.Request.Context(), id)
		switch {
		case err == nil:
			m.attach(c, s)
		case domain.IsNotFound(err):
			m.setCookie(c, "", -1)
		default:
			m.logger.WarnContext(c.Request.Context(), "session lookup failed", slog.Any("error", err))
		}
		c.Next()
	}
}

// Require rejects requests without a session. Pages redirect to the login
// page, htmx requests get an HX-Redirect, and API requests a 401 envelope.
func (m *Manager) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Current(c) != nil {
			c.Next()
			return
		}

		switch {
		case strings.HasPrefix(c.Request.URL.Path, "/api/"):
			pkg.Error(c, domain.NewAppError(domain.CodeUnauthorized, "login required", nil))
		case pkg.IsHTMX(c):
			c.Header("HX-Redirect", m.loginPath)
			c.Status(http.StatusOK)
		default:
			c.Redirect(http.StatusFound, m.loginPath)
		}
		c.Abort()
	}
}

// Destroy removes the current session from the store and clears the cookie.
func (m *Manager) Destroy(c *gin.Context) error {
	m.setCookie(c, "", -1)
	s := Current(c)
	if s == nil {
		return nil
	}
	c.Set(ginContextKey, nil)
	return m.store.Delete(c.Request.Context(), s.ID)
}

// Invalidate deletes the session carried by ctx. It backs the backend
// client's 401/403 hook: the next request finds no session and is sent to
// the login page.
func (m *Manager) Invalidate(ctx context.Context) {
	s, ok := FromContext(ctx)
	if !ok {
		return
	}
	if err := m.store.Delete(ctx, s.ID); err != nil {
		m.logger.WarnContext(ctx, "failed to invalidate session", slog.Any("error", err))
		return
	}
	m.logger.InfoContext(ctx, "session invalidated after backend authorization failure",
		slog.String("user_id", s.UserID))
}

// Ping checks the store when it supports it.
func (m *Manager) Ping(ctx context.Context) error {
	if p, ok := m.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases store resources.
func (m *Manager) Close() error {
	if cl, ok := m.store.(Closer); ok {
		return cl.Close()
	}
	return nil
}

func (m *Manager) attach(c *gin.Context, s *domain.Session) {
	c.Set(ginContextKey, s)
	ctx := context.WithValue(c.Request.Context(), contextKey{}, s)
	ctx = logger.WithContextAttrs(ctx, slog.String("user_id", s.UserID))
	c.Request = c.Request.WithContext(ctx)
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Current returns the session attached to c, or nil.
func Current(c *gin.Context) *domain.Session {
	v, ok := c.Get(ginContextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*domain.Session)
	return s
}

// FromContext returns the session attached to a request context.
func FromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*domain.Session)
	return s, ok && s != nil
}
