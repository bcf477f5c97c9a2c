package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/hotelweb/internal/config"
	"github.com/simp-lee/hotelweb/internal/session"
)

type fakeHTTPServer struct {
	listenErr      error
	listenStarted  chan struct{}
	shutdownCalled bool
	stopCh         chan struct{}
	mu             sync.Mutex
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenStarted != nil {
		close(f.listenStarted)
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	if f.stopCh != nil {
		<-f.stopCh
	}
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.mu.Lock()
	f.shutdownCalled = true
	f.mu.Unlock()
	if f.stopCh != nil {
		close(f.stopCh)
	}
	return nil
}

func (f *fakeHTTPServer) wasShutdownCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdownCalled
}

// testConfig returns a validated test-mode config pointing at backendURL.
func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Mode: gin.TestMode,
		},
		Backend: config.BackendConfig{
			BaseURL: backendURL,
			Timeout: "2s",
		},
		Session: config.SessionConfig{
			Driver: config.SessionDriverMemory,
			TTL:    "1h",
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "text",
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		a.close()
		_ = a.logger.Close()
	})
	return a
}

func TestResolveCORSConfig(t *testing.T) {
	tests := []struct {
		name            string
		mode            string
		corsCfg         config.CORSConfig
		wantOrigins     []string
		wantMethods     []string
		wantCredentials bool
		wantMaxAge      time.Duration
	}{
		{
			name:        "debug mode uses permissive default when not configured",
			mode:        gin.DebugMode,
			wantOrigins: []string{"*"},
			wantMaxAge:  24 * time.Hour,
		},
		{
			name:        "release mode denies cross-origin when not configured",
			mode:        gin.ReleaseMode,
			wantOrigins: []string{},
			wantMaxAge:  24 * time.Hour,
		},
		{
			name:        "release mode uses explicit allowlist",
			mode:        gin.ReleaseMode,
			corsCfg:     config.CORSConfig{AllowOrigins: []string{"https://hotel.example.com"}},
			wantOrigins: []string{"https://hotel.example.com"},
			wantMaxAge:  24 * time.Hour,
		},
		{
			name: "methods, credentials and max age",
			mode: gin.ReleaseMode,
			corsCfg: config.CORSConfig{
				AllowOrigins:     []string{"https://hotel.example.com"},
				AllowMethods:     []string{"GET", "POST"},
				AllowCredentials: true,
				MaxAge:           "12h",
			},
			wantOrigins:     []string{"https://hotel.example.com"},
			wantMethods:     []string{"GET", "POST"},
			wantCredentials: true,
			wantMaxAge:      12 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveCORSConfig(tt.mode, &tt.corsCfg)

			if strings.Join(got.AllowOrigins, ",") != strings.Join(tt.wantOrigins, ",") {
				t.Errorf("AllowOrigins = %v, want %v", got.AllowOrigins, tt.wantOrigins)
			}
			if tt.wantMethods != nil && strings.Join(got.AllowMethods, ",") != strings.Join(tt.wantMethods, ",") {
				t.Errorf("AllowMethods = %v, want %v", got.AllowMethods, tt.wantMethods)
			}
			if got.AllowCredentials != tt.wantCredentials {
				t.Errorf("AllowCredentials = %v, want %v", got.AllowCredentials, tt.wantCredentials)
			}
			if got.MaxAge != tt.wantMaxAge {
				t.Errorf("MaxAge = %v, want %v", got.MaxAge, tt.wantMaxAge)
			}
		})
	}
}

func TestValidateGinMode(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{gin.DebugMode, false},
		{gin.ReleaseMode, false},
		{gin.TestMode, false},
		{"staging", true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			if err := validateGinMode(tt.mode); (err != nil) != tt.wantErr {
				t.Fatalf("validateGinMode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveCSRFSecret(t *testing.T) {
	log := logger.Default().Logger

	if got, err := resolveCSRFSecret(gin.ReleaseMode, " Abcd1234!Abcd1234!Abcd1234!Abcd ", log); err != nil || got != "Abcd1234!Abcd1234!Abcd1234!Abcd" {
		t.Errorf("configured secret: got %q, %v", got, err)
	}

	for _, placeholder := range []string{"", " ", "change-me-in-env", "CHANGE-ME-TO-A-RANDOM-SECRET"} {
		if _, err := resolveCSRFSecret(gin.ReleaseMode, placeholder, log); err == nil {
			t.Errorf("release mode accepted placeholder %q", placeholder)
		}
		got, err := resolveCSRFSecret(gin.DebugMode, placeholder, log)
		if err != nil || len(got) != 64 {
			t.Errorf("debug mode placeholder %q: got %q, %v", placeholder, got, err)
		}
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNew_InvalidMode(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Server.Mode = "staging"
	if _, err := New(cfg); err == nil || !strings.Contains(err.Error(), "invalid server.mode") {
		t.Fatalf("expected invalid mode error, got %v", err)
	}
}

func TestNew_InvalidBackendURL(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Backend.BaseURL = "not a url"
	a, err := New(cfg)
	if err == nil || !strings.Contains(err.Error(), "setup backend client") {
		t.Fatalf("expected backend client error, got %v", err)
	}
	if a != nil {
		t.Fatalf("New() app = %#v, want nil", a)
	}
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Session.Driver = config.SessionDriverRedis
	cfg.Session.Redis.Addr = "127.0.0.1:1"

	if _, err := New(cfg); err == nil || !strings.Contains(err.Error(), "setup session store") {
		t.Fatalf("expected session store error, got %v", err)
	}
}

func TestNew_DatabaseSessions(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Session.Driver = config.SessionDriverDatabase
	cfg.Session.Database = config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "sessions.db")},
	}

	a := newTestApp(t, cfg)
	if _, ok := a.sessions.Store().(*session.DatabaseStore); !ok {
		t.Fatalf("expected database store, got %T", a.sessions.Store())
	}
	if a.stopPurge == nil {
		t.Error("expected the expired-session purge to run")
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}
}

func TestNew_RoutesRegistered(t *testing.T) {
	a := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))

	registered := make(map[string]bool)
	for _, ri := range a.engine.Routes() {
		registered[ri.Method+" "+ri.Path] = true
	}
	for _, key := range []string{
		"GET /",
		"GET /health",
		"GET /static/*filepath",
		"GET /login",
		"POST /api/v1/auth/login",
		"GET /rooms",
		"POST /rooms/filters",
		"GET /api/v1/rooms",
		"GET /booking/:id/:days",
		"GET /my-bookings",
		"DELETE /my-bookings/:id",
	} {
		if !registered[key] {
			t.Errorf("expected route %s", key)
		}
	}
}

func TestNew_RateLimit(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.01, Burst: 1}
	a := newTestApp(t, cfg)

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("expected 200 then 429, got %v", codes)
	}
}

// fakeBackend is a minimal booking backend for end-to-end tests.
type fakeBackend struct {
	mu         sync.Mutex
	roomQuery  string
	roomAuth   string
	rejectRoom bool
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/external/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Invalid username or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-ana","user_id":"u1","username":"ana","email":"ana@example.com"}`))
	})
	mux.HandleFunc("/api/room/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.roomQuery = r.URL.RawQuery
		f.roomAuth = r.Header.Get("Authorization")
		reject := f.rejectRoom
		f.mu.Unlock()
		if reject {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"page":1,"limit":4,"last_page":2,"items":[{"external_id":"r1","name":"Ocean Suite","price":250,"available":true}]}`))
	})
	return mux
}

func loginCookie(t *testing.T, h http.Handler, password string) (*http.Cookie, int) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"identifier": "ana", "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == "hotel_session" && c.Value != "" {
			return c, w.Code
		}
	}
	return nil, w.Code
}

func TestApp_LoginSearchAndBackendLogout(t *testing.T) {
	fb := &fakeBackend{}
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)

	a := newTestApp(t, testConfig(t, srv.URL))

	if cookie, code := loginCookie(t, a.engine, "wrong"); cookie != nil || code != http.StatusUnauthorized {
		t.Fatalf("bad password: got cookie %v, status %d", cookie, code)
	}

	cookie, code := loginCookie(t, a.engine, "secret")
	if cookie == nil || code != http.StatusOK {
		t.Fatalf("login failed: status %d", code)
	}

	search := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms?search=suite&available=true", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		a.engine.ServeHTTP(w, req)
		return w.Code
	}

	if code := search(); code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", code)
	}
	fb.mu.Lock()
	auth, query := fb.roomAuth, fb.roomQuery
	fb.mu.Unlock()
	if auth != "Bearer tok-ana" {
		t.Errorf("expected bearer token, got %q", auth)
	}
	if query != "available=true&page=1&per_page=4&search=suite" {
		t.Errorf("unexpected backend query %q", query)
	}

	// A 401 from the backend ends the local session.
	fb.mu.Lock()
	fb.rejectRoom = true
	fb.mu.Unlock()
	if code := search(); code != http.StatusBadGateway && code != http.StatusUnauthorized {
		t.Fatalf("rejected search: unexpected status %d", code)
	}
	if code := search(); code != http.StatusUnauthorized {
		t.Errorf("expected the session to be gone, got %d", code)
	}
}

func TestRun_ReturnsError_WhenListenFails(t *testing.T) {
	originalNewHTTPServer := newHTTPServer
	originalNotifyContext := notifyContext
	defer func() {
		newHTTPServer = originalNewHTTPServer
		notifyContext = originalNotifyContext
	}()

	listenErr := errors.New("listen failed")
	server := &fakeHTTPServer{listenErr: listenErr}
	newHTTPServer = func(string, http.Handler) httpServer {
		return server
	}
	notifyContext = func(context.Context, ...os.Signal) (context.Context, context.CancelFunc) {
		return context.WithCancel(context.Background())
	}

	a := &App{
		engine: gin.New(),
		logger: logger.Default(),
		cfg:    &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080}},
	}

	err := a.Run()
	if err == nil {
		t.Fatalf("Run() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "server error") {
		t.Fatalf("Run() error = %q, want contains %q", err.Error(), "server error")
	}
	if !errors.Is(err, listenErr) {
		t.Fatalf("Run() error = %v, want wraps %v", err, listenErr)
	}
}

// closeCountingStore records Close calls.
type closeCountingStore struct {
	*session.MemoryStore
	mu     sync.Mutex
	closed int
}

func (s *closeCountingStore) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return s.MemoryStore.Close()
}

func TestRun_ShutdownSignal_ReleasesResources(t *testing.T) {
	originalNewHTTPServer := newHTTPServer
	originalNotifyContext := notifyContext
	defer func() {
		newHTTPServer = originalNewHTTPServer
		notifyContext = originalNotifyContext
	}()

	server := &fakeHTTPServer{listenStarted: make(chan struct{}), stopCh: make(chan struct{})}
	newHTTPServer = func(string, http.Handler) httpServer {
		return server
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifyContext = func(context.Context, ...os.Signal) (context.Context, context.CancelFunc) {
		return ctx, cancel
	}

	store := &closeCountingStore{MemoryStore: session.NewMemoryStore(1)}
	purgeStopped := false
	a := &App{
		engine:    gin.New(),
		logger:    logger.Default(),
		cfg:       &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080}},
		sessions:  session.NewManager(store, session.Options{}),
		stopPurge: func() { purgeStopped = true },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run()
	}()

	select {
	case <-server.listenStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start listening in time")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return in time after shutdown signal")
	}

	if !server.wasShutdownCalled() {
		t.Fatal("expected server Shutdown() to be called")
	}
	store.mu.Lock()
	closed := store.closed
	store.mu.Unlock()
	if closed != 1 {
		t.Errorf("expected session store to be closed once, got %d", closed)
	}
	if !purgeStopped {
		t.Error("expected session purge to be stopped")
	}
}

type countingPurger struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPurger) DeleteExpired(context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return 1, nil
}

func TestStartSessionPurge(t *testing.T) {
	p := &countingPurger{}
	stop := startSessionPurge(p, 5*time.Millisecond, logger.Default().Logger)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		n := p.calls
		p.mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls < 2 {
		t.Errorf("expected repeated purges, got %d", p.calls)
	}
}
