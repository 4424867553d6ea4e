package httpx

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Rate limit profiles. Override with RATELIMIT_{AUTH,API}_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// AuthLimit paces login, password and verification calls. The API answers
	// bursts on these endpoints with 429, so the client stays under it.
	AuthLimit = RateLimitConfig{
		RequestsPerWindow: 5,
		Window:            time.Minute,
		Burst:             5,
	}

	// APILimit paces everything else.
	APILimit = RateLimitConfig{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		Burst:             30,
	}
)

func init() {
	AuthLimit = ParseRateLimitFromEnv("AUTH", AuthLimit)
	APILimit = ParseRateLimitFromEnv("API", APILimit)
}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: RATELIMIT_{prefix}_{field}
// For example: RATELIMIT_AUTH_REQUESTS, RATELIMIT_AUTH_WINDOW_SEC, RATELIMIT_AUTH_BURST
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

func (c RateLimitConfig) limit() rate.Limit {
	if c.Window <= 0 || c.RequestsPerWindow <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// limiterSet hands out one limiter per key.
type limiterSet struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	return &limiterSet{
		rate:        cfg.limit(),
		burst:       max(cfg.Burst, 1),
		lastCleanup: time.Now(),
	}
}

func (ls *limiterSet) get(key string) *rate.Limiter {
	if limiter, ok := ls.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := ls.limiters.LoadOrStore(key, rate.NewLimiter(ls.rate, ls.burst))
	ls.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters (full buckets) at most every 5 minutes.
func (ls *limiterSet) maybeCleanup() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if time.Since(ls.lastCleanup) < 5*time.Minute {
		return
	}
	ls.lastCleanup = time.Now()

	ls.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(ls.burst) {
			ls.limiters.Delete(key)
		}
		return true
	})
}

// Throttle is a client-side RoundTripper that waits for a token before each
// outbound call instead of letting the API reject it with 429. Requests whose
// path starts with AuthPrefix use the Auth profile, everything else the API
// profile. Waiting honours the request context.
type Throttle struct {
	Base       http.RoundTripper
	AuthPrefix string

	auth *rate.Limiter
	api  *rate.Limiter
}

// NewThrottle builds a Throttle with the given profiles.
func NewThrottle(base http.RoundTripper, authPrefix string, auth, api RateLimitConfig) *Throttle {
	return &Throttle{
		Base:       base,
		AuthPrefix: authPrefix,
		auth:       rate.NewLimiter(auth.limit(), max(auth.Burst, 1)),
		api:        rate.NewLimiter(api.limit(), max(api.Burst, 1)),
	}
}

func (t *Throttle) RoundTrip(req *http.Request) (*http.Response, error) {
	limiter := t.api
	if t.AuthPrefix != "" && strings.HasPrefix(req.URL.Path, t.AuthPrefix) {
		limiter = t.auth
	}

	if err := limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// IPKeyExtractor returns the client IP, honouring X-Forwarded-For and X-Real-IP.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RateLimitByIP limits portal requests per client IP, answering 429 with a
// Retry-After header once the bucket is empty.
func RateLimitByIP(config RateLimitConfig) Middleware {
	ls := newLimiterSet(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := IPKeyExtractor(r)
			limiter := ls.get(key)

			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn("rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteMessage(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Slow down and try again shortly.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
