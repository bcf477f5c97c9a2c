package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Session store drivers.
const (
	SessionDriverMemory    = "memory"
	SessionDriverRedis     = "redis"
	SessionDriverMemcached = "memcached"
	SessionDriverDatabase  = "database"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Backend BackendConfig `koanf:"backend"`
	Session SessionConfig `koanf:"session"`
	Search  SearchConfig  `koanf:"search"`
	Log     LogConfig     `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string          `koanf:"host"`
	Port       int             `koanf:"port"`
	Mode       string          `koanf:"mode"`
	CSRFSecret string          `koanf:"csrf_secret"`
	Timeout    string          `koanf:"timeout"`
	CORS       CORSConfig      `koanf:"cors"`
	RateLimit  RateLimitConfig `koanf:"rate_limit"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	Enabled    bool    `koanf:"enabled"`
	RPS        float64 `koanf:"rps"`
	Burst      int     `koanf:"burst"`
	MaxClients int     `koanf:"max_clients"`
}

// BackendConfig describes the booking backend the client talks to.
type BackendConfig struct {
	BaseURL   string      `koanf:"base_url"`
	Timeout   string      `koanf:"timeout"`
	RoomsPath string      `koanf:"rooms_path"`
	Cache     CacheConfig `koanf:"cache"`
}

// CacheConfig holds the room detail cache settings.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	TTL     string `koanf:"ttl"`
	MaxSize int    `koanf:"max_size"`
}

// SessionConfig holds login session settings.
type SessionConfig struct {
	Driver     string          `koanf:"driver"`
	CookieName string          `koanf:"cookie_name"`
	TTL        string          `koanf:"ttl"`
	MaxEntries int             `koanf:"max_entries"`
	Redis      RedisConfig     `koanf:"redis"`
	Memcached  MemcachedConfig `koanf:"memcached"`
	Database   DatabaseConfig  `koanf:"database"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// MemcachedConfig holds memcached server addresses.
type MemcachedConfig struct {
	Servers []string `koanf:"servers"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// SearchConfig holds room search view settings.
type SearchConfig struct {
	PerPage  int    `koanf:"per_page"`
	ViewTTL  string `koanf:"view_ttl"`
	MaxViews int    `koanf:"max_views"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__BACKEND__BASE_URL=http://api:8080 overrides backend.base_url
// and APP__SESSION__REDIS__ADDR=redis:6379 overrides session.redis.addr.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints and supported values, filling in
// defaults for optional fields.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	return c.validateLog()
}

func (c *Config) validateServer() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	if c.Server.Mode == gin.ReleaseMode {
		secret := strings.TrimSpace(c.Server.CSRFSecret)
		if len(secret) < 32 {
			return fmt.Errorf("invalid server.csrf_secret: must be at least 32 characters in release mode")
		}
		if CountSecretClasses(secret) < 3 {
			return fmt.Errorf("server.csrf_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
		}
	}

	if err := optionalDuration("server.timeout", &c.Server.Timeout); err != nil {
		return err
	}
	if err := optionalDuration("server.cors.max_age", &c.Server.CORS.MaxAge); err != nil {
		return err
	}

	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid server.rate_limit.rps %v: must be positive when rate limiting is enabled", c.Server.RateLimit.RPS)
		}
		if c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid server.rate_limit.burst %d: must be positive when rate limiting is enabled", c.Server.RateLimit.Burst)
		}
		if c.Server.RateLimit.MaxClients < 0 {
			return fmt.Errorf("invalid server.rate_limit.max_clients %d: must not be negative", c.Server.RateLimit.MaxClients)
		}
	}
	return nil
}

func (c *Config) validateBackend() error {
	raw := strings.TrimSpace(c.Backend.BaseURL)
	if raw == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend.base_url %q: must be an absolute http or https URL", c.Backend.BaseURL)
	}
	c.Backend.BaseURL = strings.TrimRight(raw, "/")

	roomsPath := strings.TrimSpace(c.Backend.RoomsPath)
	if roomsPath == "" {
		roomsPath = "/api/room/"
	}
	if !strings.HasPrefix(roomsPath, "/") {
		return fmt.Errorf("invalid backend.rooms_path %q: must start with '/'", c.Backend.RoomsPath)
	}
	c.Backend.RoomsPath = roomsPath

	if err := optionalDuration("backend.timeout", &c.Backend.Timeout); err != nil {
		return err
	}

	c.Backend.Cache.TTL = strings.TrimSpace(c.Backend.Cache.TTL)
	if c.Backend.Cache.Enabled {
		if err := requiredDuration("backend.cache.ttl", &c.Backend.Cache.TTL); err != nil {
			return err
		}
		if c.Backend.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid backend.cache.max_size %d: must be positive when caching is enabled", c.Backend.Cache.MaxSize)
		}
	}
	return nil
}

func (c *Config) validateSession() error {
	s := &c.Session

	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		driver = SessionDriverMemory
	}
	s.Driver = driver

	cookie := strings.TrimSpace(s.CookieName)
	if cookie == "" {
		cookie = "hotel_session"
	}
	s.CookieName = cookie

	if strings.TrimSpace(s.TTL) == "" {
		s.TTL = "24h"
	}
	if err := requiredDuration("session.ttl", &s.TTL); err != nil {
		return err
	}

	switch driver {
	case SessionDriverMemory:
		if s.MaxEntries < 0 {
			return fmt.Errorf("invalid session.max_entries %d: must not be negative", s.MaxEntries)
		}
	case SessionDriverRedis:
		addr := strings.TrimSpace(s.Redis.Addr)
		if addr == "" {
			return fmt.Errorf("session.redis.addr is required when driver is redis")
		}
		if s.Redis.DB < 0 {
			return fmt.Errorf("invalid session.redis.db %d: must not be negative", s.Redis.DB)
		}
		s.Redis.Addr = addr
	case SessionDriverMemcached:
		servers := make([]string, 0, len(s.Memcached.Servers))
		for idx, srv := range s.Memcached.Servers {
			srv = strings.TrimSpace(srv)
			if srv == "" {
				return fmt.Errorf("session.memcached.servers[%d] cannot be empty", idx)
			}
			servers = append(servers, srv)
		}
		if len(servers) == 0 {
			return fmt.Errorf("session.memcached.servers is required when driver is memcached")
		}
		s.Memcached.Servers = servers
	case SessionDriverDatabase:
		if err := validateDatabase(&s.Database, c.Server.Mode); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid session.driver %q: must be one of %q, %q, %q, %q",
			s.Driver, SessionDriverMemory, SessionDriverRedis, SessionDriverMemcached, SessionDriverDatabase)
	}
	return nil
}

func validateDatabase(db *DatabaseConfig, mode string) error {
	switch db.Driver {
	case "sqlite", "postgres":
		// ok
	default:
		return fmt.Errorf("invalid session.database.driver %q: must be one of %q, %q", db.Driver, "sqlite", "postgres")
	}

	if db.Driver == "sqlite" {
		sqlitePath := strings.TrimSpace(db.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("session.database.sqlite.path is required when driver is sqlite")
		}
		db.SQLite.Path = sqlitePath
	}

	if db.Driver == "postgres" {
		pg := &db.Postgres
		host := strings.TrimSpace(pg.Host)
		if host == "" {
			return fmt.Errorf("session.database.postgres.host is required when driver is postgres")
		}
		if pg.Port < 1 || pg.Port > 65535 {
			return fmt.Errorf("invalid session.database.postgres.port %d: must be between 1 and 65535", pg.Port)
		}
		user := strings.TrimSpace(pg.User)
		if user == "" {
			return fmt.Errorf("session.database.postgres.user is required when driver is postgres")
		}
		dbName := strings.TrimSpace(pg.DBName)
		if dbName == "" {
			return fmt.Errorf("session.database.postgres.dbname is required when driver is postgres")
		}
		sslMode := strings.TrimSpace(pg.SSLMode)
		switch sslMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
			// ok
		default:
			return fmt.Errorf("invalid session.database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", pg.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
		}
		if mode == gin.ReleaseMode {
			switch sslMode {
			case "require", "verify-ca", "verify-full":
				// ok
			default:
				return fmt.Errorf("invalid session.database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", pg.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
			}
		}
		pg.Host = host
		pg.User = user
		pg.DBName = dbName
		pg.SSLMode = sslMode
	}

	return optionalDuration("session.database.pool.conn_max_lifetime", &db.Pool.ConnMaxLifetime)
}

func (c *Config) validateSearch() error {
	if c.Search.PerPage == 0 {
		c.Search.PerPage = 4
	}
	if c.Search.PerPage < 1 || c.Search.PerPage > 100 {
		return fmt.Errorf("invalid search.per_page %d: must be between 1 and 100", c.Search.PerPage)
	}
	if strings.TrimSpace(c.Search.ViewTTL) == "" {
		c.Search.ViewTTL = "30m"
	}
	if err := requiredDuration("search.view_ttl", &c.Search.ViewTTL); err != nil {
		return err
	}
	if c.Search.MaxViews < 0 {
		return fmt.Errorf("invalid search.max_views %d: must not be negative", c.Search.MaxViews)
	}
	return nil
}

func (c *Config) validateLog() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}
	return nil
}

// optionalDuration trims *value and, when non-empty, checks it is a positive
// Go duration.
func optionalDuration(name string, value *string) error {
	*value = strings.TrimSpace(*value)
	if *value == "" {
		return nil
	}
	return requiredDuration(name, value)
}

func requiredDuration(name string, value *string) error {
	v := strings.TrimSpace(*value)
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, *value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, *value)
	}
	*value = v
	return nil
}

// Duration parses a validated duration field, returning def when it is empty.
func Duration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) are present in the given secret string.
func CountSecretClasses(secret string) int {
	hasLower := false
	hasUpper := false
	hasDigit := false
	hasSymbol := false

	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	for _, ok := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if ok {
			classes++
		}
	}
	return classes
}
