package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"shopsearch-be/internal/apperror"
	"shopsearch-be/internal/logger"
	"shopsearch-be/internal/utils"

	"go.uber.org/zap"
)

const (
	WidgetRequestLimit = 30
	WidgetWindow       = time.Minute
)

type window struct {
	count   int
	resetAt time.Time
}

// WindowLimiter allows a fixed number of requests per key in each window.
// A key's window starts with its first request and restarts once resetAt
// has passed.
type WindowLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func NewWindowLimiter(limit int, period time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow records a request for key. When the quota is spent it returns an
// error wrapping apperror.ErrRateLimit and the time left in the window.
func (l *WindowLimiter) Allow(key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(l.period)}
		return 0, nil
	}

	if w.count >= l.limit {
		return w.resetAt.Sub(now), fmt.Errorf("%s: %w", key, apperror.ErrRateLimit)
	}

	w.count++
	return 0, nil
}

// Purge drops every window whose reset time has passed.
func (l *WindowLimiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Run purges expired windows once per period until ctx is done.
func (l *WindowLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Purge(); n > 0 {
				logger.L().Debug("purged rate limit windows", zap.Int("count", n))
			}
		}
	}
}

// Middleware limits requests per client IP.
func (l *WindowLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		retryAfter, err := l.Allow(utils.ClientIP(r))
		if err != nil {
			logger.FromCtx(r.Context()).Warn("rate limit exceeded", zap.Error(err))
			writeRateLimited(w, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	utils.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
		"error":   "Too many requests",
		"message": "Rate limit exceeded. Please try again later.",
	})
}
