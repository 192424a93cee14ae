package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"crewdesk/internal/transport/http/api"
)

// pruneAfter is the number of tracked keys above which expired windows are
// dropped on the next request.
const pruneAfter = 1024

type limitScope int

const (
	scopeNone limitScope = iota
	scopeLogin
	scopeBulk
)

type window struct {
	count int
	reset time.Time
}

// limiter counts requests per key in fixed windows.
type limiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	key     func(*http.Request) string
	windows map[string]*window
	now     func() time.Time
}

func newLimiter(limit int, period time.Duration, key func(*http.Request) string) *limiter {
	return &limiter{
		limit:   limit,
		period:  period,
		key:     key,
		windows: map[string]*window{},
		now:     time.Now,
	}
}

// take counts one request for key and reports whether it fits the window.
func (l *limiter) take(key string) (bool, int, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.windows) > pruneAfter {
		for k, w := range l.windows {
			if now.After(w.reset) {
				delete(l.windows, k)
			}
		}
	}
	w, ok := l.windows[key]
	if !ok || now.After(w.reset) {
		w = &window{reset: now.Add(l.period)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit, max(l.limit-w.count, 0), w.reset.Sub(now)
}

func (l *limiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.key(r)
	ok, remaining, resetIn := l.take(key)
	resetSec := int(math.Ceil(resetIn.Seconds()))

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if ok {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func limitWith(limiters ...*limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, l := range limiters {
				if !l.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit caps every caller at limit requests per window.
func RateLimit(limit int, period time.Duration) func(http.Handler) http.Handler {
	return limitWith(newLimiter(limit, period, callerKey))
}

// SensitiveMutationRateLimit applies tighter windows to login attempts and
// to bulk salary and calendar mutations. Other requests pass untouched.
func SensitiveMutationRateLimit(baseLimit int, period time.Duration) func(http.Handler) http.Handler {
	loginLimit := max(baseLimit/4, 1)
	login := limitWith(newLimiter(loginLimit, period, clientIP), newLimiter(loginLimit, period, loginEmailKey))
	bulk := limitWith(newLimiter(max(baseLimit/2, 1), period, callerKey))

	return func(next http.Handler) http.Handler {
		loginNext, bulkNext := login(next), bulk(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch scopeOf(r) {
			case scopeLogin:
				loginNext.ServeHTTP(w, r)
			case scopeBulk:
				bulkNext.ServeHTTP(w, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func scopeOf(r *http.Request) limitScope {
	if r.Method != http.MethodPost {
		return scopeNone
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case path == "/auth/login":
		return scopeLogin
	case path == "/salary/import", path == "/salary/backups", path == "/calendar/import/commit":
		return scopeBulk
	case strings.HasPrefix(path, "/salary/periods/") && strings.HasSuffix(path, "/generate"):
		return scopeBulk
	}
	return scopeNone
}

func callerKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.ID != "" {
		return "user:" + user.ID
	}
	return clientIP(r)
}

func clientIP(r *http.Request) string {
	if fwd, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(fwd) != "" {
		return strings.TrimSpace(fwd)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// loginEmailKey keys login attempts on the submitted email, restoring the
// body for the handler.
func loginEmailKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return clientIP(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return clientIP(r)
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil || strings.TrimSpace(body.Email) == "" {
		return clientIP(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(body.Email))
}
