package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/hotelweb/internal/backend"
	"github.com/simp-lee/hotelweb/internal/config"
	"github.com/simp-lee/hotelweb/internal/middleware"
	"github.com/simp-lee/hotelweb/internal/module/auth"
	"github.com/simp-lee/hotelweb/internal/module/booking"
	"github.com/simp-lee/hotelweb/internal/module/room"
	"github.com/simp-lee/hotelweb/internal/roomsearch"
	"github.com/simp-lee/hotelweb/internal/session"
	"github.com/simp-lee/hotelweb/web"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine    *gin.Engine
	logger    *logger.Logger
	cfg       *config.Config
	sessions  *session.Manager
	backend   *backend.Client
	views     *roomsearch.Registry
	limiter   *middleware.RateLimiter
	stopPurge context.CancelFunc
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// sessionPurgeInterval is how often expired rows are removed from the
// database session store.
const sessionPurgeInterval = 15 * time.Minute

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the session store, the backend client, the room search
// views, modules, middleware, template rendering and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false
	var cleanups []func()
	defer func() {
		if success {
			return
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	// 1. Logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	cleanups = append(cleanups, func() {
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	})

	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}

	csrfSecret, err := resolveCSRFSecret(cfg.Server.Mode, cfg.Server.CSRFSecret, log.Logger)
	if err != nil {
		return nil, err
	}

	// 2. Session store and manager.
	store, err := openSessionStore(&cfg.Session, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup session store: %w", err)
	}
	sessions := session.NewManager(store, session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        config.Duration(cfg.Session.TTL, 24*time.Hour),
		Secure:     cfg.Server.Mode == gin.ReleaseMode,
		Logger:     log.Logger,
	})
	cleanups = append(cleanups, func() { _ = sessions.Close() })

	// 3. Backend client. A 401/403 from the backend ends the local session.
	backendOpts := backend.Options{
		BaseURL:        cfg.Backend.BaseURL,
		Timeout:        config.Duration(cfg.Backend.Timeout, 10*time.Second),
		RoomsPath:      cfg.Backend.RoomsPath,
		Logger:         log.Logger,
		OnUnauthorized: sessions.Invalidate,
	}
	if cfg.Backend.Cache.Enabled {
		backendOpts.CacheTTL = config.Duration(cfg.Backend.Cache.TTL, 5*time.Minute)
		backendOpts.CacheMaxSize = int64(cfg.Backend.Cache.MaxSize)
	}
	client, err := backend.New(backendOpts)
	if err != nil {
		return nil, fmt.Errorf("setup backend client: %w", err)
	}
	cleanups = append(cleanups, client.Close)

	// 4. Room search views.
	views := roomsearch.NewRegistry(roomsearch.NewClient(client), roomsearch.RegistryOptions{
		PerPage:  cfg.Search.PerPage,
		TTL:      config.Duration(cfg.Search.ViewTTL, 30*time.Minute),
		MaxViews: int64(cfg.Search.MaxViews),
		Logger:   log.Logger,
	})
	cleanups = append(cleanups, views.Stop)

	// 5. Modules: service → handler → module.
	authSvc := auth.NewService(client)
	bookingSvc := booking.NewService(client)
	modules := []Module{
		auth.NewModule(auth.NewHandler(authSvc, sessions), auth.NewPageHandler(authSvc, sessions)),
		room.NewModule(
			room.NewHandler(roomsearch.NewClient(client), client, cfg.Search.PerPage),
			room.NewPageHandler(views, client),
			sessions,
		),
		booking.NewModule(booking.NewHandler(bookingSvc), booking.NewPageHandler(bookingSvc), sessions),
	}

	// 6. Gin engine with custom middleware (not gin.Default()).
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger, "/static/", "/health"),
		middleware.CORSWithConfig(resolveCORSConfig(cfg.Server.Mode, &cfg.Server.CORS)),
		middleware.Timeout(config.Duration(cfg.Server.Timeout, 0)),
	)

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RPS:        cfg.Server.RateLimit.RPS,
			Burst:      cfg.Server.RateLimit.Burst,
			MaxClients: cfg.Server.RateLimit.MaxClients,
		})
		cleanups = append(cleanups, limiter.Stop)
		engine.Use(limiter.Middleware(log.Logger))
	}
	engine.Use(sessions.Load())

	// 7. Templates: hot reload from disk in debug mode, embedded otherwise.
	var fsys fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}
	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 8. Routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:    modules,
		Sessions:   sessions,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	a := &App{
		engine:   engine,
		logger:   log,
		cfg:      cfg,
		sessions: sessions,
		backend:  client,
		views:    views,
		limiter:  limiter,
	}
	if purger, ok := store.(expiredPurger); ok {
		a.stopPurge = startSessionPurge(purger, sessionPurgeInterval, log.Logger)
	}

	success = true
	return a, nil
}

// openSessionStore builds the store for the configured driver.
func openSessionStore(cfg *config.SessionConfig, log *slog.Logger) (session.Store, error) {
	switch cfg.Driver {
	case config.SessionDriverMemory, "":
		return session.NewMemoryStore(cfg.MaxEntries), nil
	case config.SessionDriverRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return session.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	case config.SessionDriverMemcached:
		return session.NewMemcachedStore(cfg.Memcached.Servers...), nil
	case config.SessionDriverDatabase:
		db, err := config.OpenDatabase(&cfg.Database, log)
		if err != nil {
			return nil, err
		}
		store, err := session.NewDatabaseStore(db)
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported session driver %q", cfg.Driver)
	}
}

type expiredPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// startSessionPurge deletes expired sessions every interval until the
// returned function is called.
func startSessionPurge(p expiredPurger, interval time.Duration, log *slog.Logger) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := p.DeleteExpired(ctx)
				if err != nil {
					log.Warn("session purge failed", slog.Any("error", err))
					continue
				}
				if n > 0 {
					log.Debug("expired sessions purged", slog.Int64("count", n))
				}
			}
		}
	}()
	return cancel
}

func resolveCSRFSecret(mode, secret string, log *slog.Logger) (string, error) {
	if !isPlaceholderCSRFSecret(secret) {
		return strings.TrimSpace(secret), nil
	}
	if mode == gin.ReleaseMode {
		return "", errors.New("csrf_secret must be a non-placeholder value in release mode")
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf secret: %w", err)
	}
	log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	return hex.EncodeToString(b), nil
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

// resolveCORSConfig builds the CORS settings. In release mode, when no
// allowlist is configured, cross-origin requests are denied.
func resolveCORSConfig(mode string, cfg *config.CORSConfig) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()

	switch {
	case len(cfg.AllowOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	case mode == gin.ReleaseMode:
		corsConfig.AllowOrigins = []string{}
	}
	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}
	if len(cfg.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowHeaders
	}
	corsConfig.AllowCredentials = cfg.AllowCredentials
	corsConfig.MaxAge = config.Duration(cfg.MaxAge, corsConfig.MaxAge)

	return corsConfig
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It shuts down gracefully with a 5-second timeout, then releases the
// session store, search views and backend client.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log().Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log().Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log().Error("server shutdown error", slog.Any("error", err))
		}
	}

	a.close()
	a.log().Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}

// close releases everything New started except the logger.
func (a *App) close() {
	if a.stopPurge != nil {
		a.stopPurge()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.views != nil {
		a.views.Stop()
	}
	if a.backend != nil {
		a.backend.Close()
	}
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.log().Error("session store close error", slog.Any("error", err))
		} else {
			a.log().Info("session store closed")
		}
	}
}

func (a *App) log() *slog.Logger {
	if a.logger != nil {
		return a.logger.Logger
	}
	return slog.Default()
}
