package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
}

// RateLimiter is a per-IP fixed-window limiter.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*rateEntry
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window, entries: make(map[string]*rateEntry)}
}

// permitir counts one request for ip and reports whether it is within the
// limit, plus the end of the current window.
func (l *RateLimiter) permitir(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = entry
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.permitir(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}

// ── Purge ─────────────────────────────────────────────────────────────────────

// Purgar removes expired entries and returns how many were dropped.
func (l *RateLimiter) Purgar(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	purged := 0
	for ip, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	return purged
}

// PurgarPeriodicamente purges expired entries every interval until ctx is done.
func (l *RateLimiter) PurgarPeriodicamente(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.Purgar(now); n > 0 {
				log.Debug().Int("purged", n).Msg("rate limiter purgado")
			}
		}
	}
}
