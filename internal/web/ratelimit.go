package web

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter tracks one client's token bucket and its last use for
// eviction.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client requests-per-minute limit. Buckets
// live in memory; this matches the single-instance deployment model.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	perMinute int
	burst     int
	enabled   bool
}

// NewRateLimiter creates a limiter allowing perMinute requests per
// client with a burst of the same size.
func NewRateLimiter(perMinute int, enabled bool) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		perMinute: perMinute,
		burst:     perMinute,
		enabled:   enabled,
	}
}

// Middleware wraps a handler with the rate limit. Rejections get a 429
// with a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled {
			next.ServeHTTP(w, r)
			return
		}
		if !rl.allow(clientIdentifier(r)) {
			log.Printf("[RateLimit] Rejected %s on %s", clientIdentifier(r), r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs(rl.perMinute)))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute)+"/minute")
			writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
				"Too many requests. Limit: "+strconv.Itoa(rl.perMinute)+"/minute")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[client]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.burst),
		}
		rl.clients[client] = cl
	}
	cl.lastSeen = time.Now()

	// Opportunistic eviction of idle buckets.
	if len(rl.clients) > 1024 {
		cutoff := time.Now().Add(-10 * time.Minute)
		for id, c := range rl.clients {
			if c.lastSeen.Before(cutoff) {
				delete(rl.clients, id)
			}
		}
	}

	return cl.limiter.Allow()
}

func retryAfterSecs(perMinute int) int {
	if perMinute <= 0 {
		return 60
	}
	secs := 60 / perMinute
	if secs < 1 {
		secs = 1
	}
	return secs
}

// clientIdentifier keys the rate limit. Behind a proxy the first
// X-Forwarded-For hop is the real client; authenticated requests fall
// back to a hash of the API key, everything else to the remote address.
func clientIdentifier(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if key := r.Header.Get(apiKeyHeader); key != "" {
		sum := sha256.Sum256([]byte(key))
		return "apikey:" + hex.EncodeToString(sum[:8])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
