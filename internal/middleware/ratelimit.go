package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/karlseguin/ccache/v3"
	"golang.org/x/time/rate"

	"github.com/simp-lee/hotelweb/internal/pkg"
)

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	RPS   float64
	Burst int
	// MaxClients bounds the number of client limiters kept in memory.
	// The least recently seen clients are evicted first.
	MaxClients int
	// IdleTTL drops the limiter of a client silent for this long.
	IdleTTL time.Duration
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	limiters *ccache.Cache[*rate.Limiter]
}

// NewRateLimiter creates a limiter table from cfg.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
		idleTTL:  cfg.IdleTTL,
		limiters: ccache.New(ccache.Configure[*rate.Limiter]().MaxSize(int64(cfg.MaxClients))),
	}
}

// Allow reports whether the client identified by key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	item, err := rl.limiters.Fetch(key, rl.idleTTL, func() (*rate.Limiter, error) {
		return rate.NewLimiter(rl.limit, rl.burst), nil
	})
	if err != nil {
		return true
	}
	item.Extend(rl.idleTTL)
	return item.Value().Allow()
}

// Stop releases the limiter table's background worker.
func (rl *RateLimiter) Stop() {
	rl.limiters.Stop()
}

// Middleware rejects requests over the client's budget with 429 and a
// Retry-After header. htmx requests also get a toast.
func (rl *RateLimiter) Middleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	retryAfter := "1"
	if rl.limit > 0 && rl.limit < 1 {
		retryAfter = strconv.Itoa(int(1/float64(rl.limit) + 0.5))
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rl.Allow(ip) {
			c.Next()
			return
		}

		logger.WarnContext(c.Request.Context(), "rate limit exceeded", slog.String("client_ip", ip))
		c.Header("Retry-After", retryAfter)
		if pkg.IsHTMX(c) {
			pkg.SetToast(c, "Too many requests. Please slow down.", pkg.ToastError)
			c.Header("HX-Reswap", "none")
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, pkg.Response{
			Code:    http.StatusTooManyRequests,
			Message: "too many requests",
		})
	}
}
