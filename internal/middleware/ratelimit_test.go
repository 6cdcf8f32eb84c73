package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func submit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/plan", http.NoBody)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(0.01, 3)
	h := rl.Limit(SurfaceAPI, nil)(okHandler())

	for i := range 3 {
		rec := submit(h, "192.168.1.1:4000")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(2-i) {
			t.Errorf("request %d: expected remaining %d, got %q", i+1, 2-i, got)
		}
	}

	rec := submit(h, "192.168.1.1:4001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Limit") != "3" {
		t.Errorf("expected X-RateLimit-Limit 3, got %q", rec.Header().Get("X-RateLimit-Limit"))
	}
	if rec.Body.String() != `{"error":"rate limit exceeded"}` {
		t.Errorf("unexpected default body %q", rec.Body.String())
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(0.01, 1)
	h := rl.Limit(SurfaceForm, nil)(okHandler())

	submit(h, "10.0.0.1:1")
	if rec := submit(h, "10.0.0.1:2"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("10.0.0.1: expected 429, got %d", rec.Code)
	}
	if rec := submit(h, "10.0.0.2:1"); rec.Code != http.StatusOK {
		t.Errorf("10.0.0.2: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiter_SurfacesAreIndependent(t *testing.T) {
	rl := NewRateLimiter(0.01, 1)
	form := rl.Limit(SurfaceForm, nil)(okHandler())
	api := rl.Limit(SurfaceAPI, nil)(okHandler())

	submit(form, "10.0.0.3:1")
	if rec := submit(form, "10.0.0.3:1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("form: expected 429, got %d", rec.Code)
	}
	if rec := submit(api, "10.0.0.3:1"); rec.Code != http.StatusOK {
		t.Fatalf("api: expected 200 after the form was throttled, got %d", rec.Code)
	}

	if d := rl.Allow(SurfaceMCP, "10.0.0.3"); !d.Allowed {
		t.Fatal("mcp: first call should be admitted")
	}
	d := rl.Allow(SurfaceMCP, "10.0.0.3")
	if d.Allowed || d.RetryAfterSeconds() < 1 {
		t.Fatalf("mcp: expected a throttled decision with a retry delay, got %+v", d)
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(1000, 1)
	if !rl.Allow(SurfaceAPI, "10.0.0.4").Allowed {
		t.Fatal("first call should be admitted")
	}
	time.Sleep(5 * time.Millisecond)
	if !rl.Allow(SurfaceAPI, "10.0.0.4").Allowed {
		t.Fatal("bucket should refill")
	}
}

func TestRateLimiter_CustomReject(t *testing.T) {
	rl := NewRateLimiter(0.01, 1)
	h := rl.Limit(SurfaceForm, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("<p>slow down</p>"))
	})(okHandler())

	submit(h, "10.0.0.9:5555")
	last := submit(h, "10.0.0.9:5555")
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if last.Body.String() != "<p>slow down</p>" {
		t.Errorf("expected custom body, got %q", last.Body.String())
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimiter_IgnoresForwardedFor(t *testing.T) {
	rl := NewRateLimiter(0.01, 1)
	h := rl.Limit(SurfaceAPI, nil)(okHandler())

	for i, xff := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", http.NoBody)
		req.RemoteAddr = "10.0.0.5:1"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("a forged X-Forwarded-For must not grant a new bucket, got %d", rec.Code)
		}
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Allow(SurfaceForm, "10.0.0.1")
	rl.Allow(SurfaceAPI, "10.0.0.1")
	if rl.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", rl.Len())
	}
	rl.cleanup(-time.Second)
	if rl.Len() != 0 {
		t.Fatalf("expected idle buckets removed, got %d", rl.Len())
	}
}

func TestWithClientIP(t *testing.T) {
	var got string
	h := WithClientIP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ClientIPFrom(r.Context())
	}))
	submit(h, "203.0.113.7:9000")
	if got != "203.0.113.7" {
		t.Fatalf("expected 203.0.113.7, got %q", got)
	}
	if ClientIPFrom(context.Background()) != "" {
		t.Fatal("empty context should yield no address")
	}
}
