package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Surface names an entry point that starts crew runs. Every surface keeps
// its own buckets, so a client scripting the API does not lock itself out
// of the web form.
type Surface string

const (
	SurfaceForm Surface = "form"
	SurfaceAPI  Surface = "api"
	SurfaceMCP  Surface = "mcp"
)

// maxBuckets bounds memory; new clients are refused once it is reached.
const maxBuckets = 100000

// RateLimiter is a token bucket per client IP and surface. Each crew run
// costs four LLM calls, so plan submissions are throttled per client.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[bucketKey]*bucket
	rate    float64 // tokens per second
	burst   int
}

type bucketKey struct {
	surface Surface
	ip      string
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds for Retry-After.
func (d Decision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// NewRateLimiter creates a rate limiter with the given sustained rate
// (plans per second) and burst size.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[bucketKey]*bucket),
		rate:    rate,
		burst:   burst,
	}
}

// Limit returns middleware admitting requests to surface. reject writes the
// throttled response after Retry-After is set; nil answers with JSON.
func (rl *RateLimiter) Limit(surface Surface, reject http.HandlerFunc) func(http.Handler) http.Handler {
	if reject == nil {
		reject = rejectJSON
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			d := rl.Allow(surface, ip)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
				slog.InfoContext(r.Context(), "plan throttled", "surface", surface, "ip", ip, "retry_after_s", d.RetryAfterSeconds())
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
}

// Allow takes one token from the bucket of ip on surface.
func (rl *RateLimiter) Allow(surface Surface, ip string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	key := bucketKey{surface: surface, ip: ip}
	b, ok := rl.buckets[key]
	if !ok {
		if len(rl.buckets) >= maxBuckets {
			return Decision{RetryAfter: rl.perToken()}
		}
		b = &bucket{tokens: float64(rl.burst), lastSeen: now}
		rl.buckets[key] = b
	}

	b.tokens = math.Min(float64(rl.burst), b.tokens+now.Sub(b.lastSeen).Seconds()*rl.rate)
	b.lastSeen = now

	if b.tokens < 1 {
		return Decision{RetryAfter: time.Duration((1 - b.tokens) / rl.rate * float64(time.Second))}
	}
	b.tokens--
	return Decision{Allowed: true, Remaining: int(b.tokens)}
}

func (rl *RateLimiter) perToken() time.Duration {
	return time.Duration(float64(time.Second) / rl.rate)
}

// StartCleanup forgets clients idle for longer than maxIdle, checking every
// interval. The returned function stops it.
func (rl *RateLimiter) StartCleanup(interval, maxIdle time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup(maxIdle)
			}
		}
	}()
	return cancel
}

func (rl *RateLimiter) cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	for k, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, k)
		}
	}
}

// Len returns the number of tracked buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

type clientIPKey struct{}

// ClientIP returns the host part of RemoteAddr. Proxy headers
// (X-Forwarded-For, X-Real-Ip) are not trusted: clients can forge them.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WithClientIP stores the caller's address in the request context for
// handlers that only see a context, such as MCP tools.
func WithClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey{}, ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFrom returns the address stored by WithClientIP, or "".
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
