package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tcg/scenario-sheets/internal/platform/auth"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func limitedRequest(e *echo.Echo, handler echo.HandlerFunc, userID string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scenarios/parse", nil)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	return rec, handler(e.NewContext(req, rec))
}

func TestRateLimit_RequestsWithinBurst(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(okHandler)

	for i := 0; i < 5; i++ {
		rec, err := limitedRequest(e, handler, "")
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit 10, got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})(okHandler)

	for i := 0; i < 2; i++ {
		if _, err := limitedRequest(e, handler, ""); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec, err := limitedRequest(e, handler, "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0, got %q", got)
	}
}

func TestRateLimit_SeparateBucketsPerUser(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(okHandler)

	if _, err := limitedRequest(e, handler, "alice"); err != nil {
		t.Fatalf("alice first request: %v", err)
	}
	if _, err := limitedRequest(e, handler, "alice"); err == nil {
		t.Fatal("expected alice's second request to be limited")
	}
	if _, err := limitedRequest(e, handler, "bob"); err != nil {
		t.Fatalf("expected bob to have his own bucket, got %v", err)
	}
	if _, err := limitedRequest(e, handler, ""); err != nil {
		t.Fatalf("expected anonymous caller to have its own bucket, got %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 5 || cfg.BurstSize != 20 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestTokenBucket_RetryAfterWithZeroRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	b.allow()
	if ra := b.retryAfter(); ra != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", ra)
	}
}

func TestLimiterStore_ReusesAndEvicts(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})
	now := time.Now()

	b1 := store.bucket("key1", now)
	if b1 != store.bucket("key1", now) {
		t.Error("expected same bucket for same key")
	}
	if b1 == store.bucket("key2", now) {
		t.Error("expected different bucket for different key")
	}
	if store.size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", store.size())
	}

	later := now.Add(2 * bucketIdleTTL)
	store.bucket("key3", later)
	if store.size() != 1 {
		t.Errorf("expected idle buckets to be evicted, got %d buckets", store.size())
	}
}
