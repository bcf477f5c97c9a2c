package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func requestIDRoundTrip(t *testing.T, mw gin.HandlerFunc, upstream string) (header, body string) {
	t.Helper()
	r := gin.New()
	r.Use(mw)
	r.GET("/rooms", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	if upstream != "" {
		req.Header.Set("X-Request-ID", upstream)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header().Get("X-Request-ID"), w.Body.String()
}

func TestRequestID_Generates(t *testing.T) {
	header, body := requestIDRoundTrip(t, RequestID(), "")

	if header == "" || header != body {
		t.Fatalf("header %q and context %q should be the same non-empty ID", header, body)
	}
	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("expected a UUID, got %q", header)
	}

	other, _ := requestIDRoundTrip(t, RequestID(), "")
	if other == header {
		t.Error("request IDs must be unique per request")
	}
}

func TestRequestID_Upstream(t *testing.T) {
	trusted := RequestIDWithConfig(RequestIDConfig{TrustUpstream: true})
	boundary := strings.Repeat("a", 64)

	tests := []struct {
		name     string
		mw       gin.HandlerFunc
		upstream string
		reused   bool
	}{
		{"ignored by default", RequestID(), "proxy-id-1", false},
		{"trusted", trusted, "proxy-id-1", true},
		{"64 chars", trusted, boundary, true},
		{"too long", trusted, boundary + "a", false},
		{"bad charset", trusted, "id with spaces", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := requestIDRoundTrip(t, tt.mw, tt.upstream)
			if (got == tt.upstream) != tt.reused {
				t.Errorf("upstream %q: reused=%v, got %q", tt.upstream, tt.reused, got)
			}
		})
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetRequestID(c); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
