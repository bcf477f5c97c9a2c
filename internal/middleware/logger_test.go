package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
)

func setupLoggerRouter(log *slog.Logger, requestID gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(requestID, Logger(log, "/static/", "/health"))
	r.GET("/rooms", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/room/:id", func(c *gin.Context) { c.String(http.StatusNotFound, "not found") })
	r.GET("/my-bookings", func(c *gin.Context) { c.String(http.StatusBadGateway, "backend down") })
	r.POST("/rooms/filters", func(c *gin.Context) { c.String(http.StatusOK, "fragment") })
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		path      string
		wantLevel string
	}{
		{"/rooms", "level=INFO"},
		{"/room/x", "level=WARN"},
		{"/my-bookings", "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			r := setupLoggerRouter(newTestLogger(&buf), RequestID())
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			if !strings.Contains(buf.String(), tt.wantLevel) {
				t.Errorf("expected %s, got:\n%s", tt.wantLevel, buf.String())
			}
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&buf), RequestID())

	req := httptest.NewRequest(http.MethodPost, "/rooms/filters", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, field := range []string{"msg=request", "method=POST", "path=/rooms/filters", "status=200", "latency=", "client_ip=", "htmx=true"} {
		if !strings.Contains(out, field) {
			t.Errorf("expected log to contain %q, got:\n%s", field, out)
		}
	}
}

func TestLogger_SkipsPrefixes(t *testing.T) {
	var buf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&buf), RequestID())
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if buf.Len() != 0 {
		t.Errorf("expected health probe not logged, got:\n%s", buf.String())
	}
}

func TestLogger_IncludesRequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(
		logger.WithConsoleWriter(&buf),
		logger.WithConsoleFormat(logger.FormatText),
		logger.WithConsoleColor(false),
		logger.WithLevel(slog.LevelDebug),
		logger.WithMiddleware(logger.ContextMiddleware()),
	)
	if err != nil {
		t.Fatalf("logger.New error: %v", err)
	}
	defer log.Close()

	r := setupLoggerRouter(log.Logger, RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}))
	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("X-Request-ID", "req-rooms-789")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "req-rooms-789") {
		t.Errorf("expected request_id in log, got:\n%s", buf.String())
	}
}
