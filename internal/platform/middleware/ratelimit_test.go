package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3}
	mw := RateLimit(cfg)

	e := echo.New()
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := mw(handler)(c); err != nil {
			t.Fatalf("request %d should be allowed: %v", i, err)
		}
	}
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1}
	mw := RateLimit(cfg)

	e := echo.New()
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := mw(handler)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(handler)(c)
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on rejected request")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	b := newTokenBucket(1000, 1)
	if !b.allow() {
		t.Fatal("first call should be allowed")
	}
	// At 1000 tokens/sec the bucket refills almost immediately.
	deadline := make(chan struct{})
	go func() {
		for !b.allow() {
		}
		close(deadline)
	}()
	<-deadline
}
