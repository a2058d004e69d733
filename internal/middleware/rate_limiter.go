package middleware

import (
	"net/http"
	"sync"
	"time"

	"stockcocina/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
}

// rateLimiter owns its map so each route group can carry its own budget.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*rateEntry
}

// RateLimiter returns a per-IP window limiter. Stock edits arrive in bursts
// (one request per tap on +/-), so limits are generous.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{limit: limit, window: window, entries: make(map[string]*rateEntry)}
	go rl.purge()
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	now := time.Now()
	ip := c.ClientIP()

	rl.mu.Lock()
	entry, ok := rl.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &rateEntry{windowEnd: now.Add(rl.window)}
		rl.entries[ip] = entry
	}
	entry.count++
	exceeded := entry.count > rl.limit
	windowEnd := entry.windowEnd
	rl.mu.Unlock()

	if exceeded {
		c.Header("Retry-After", windowEnd.Format(time.RFC1123))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
		return
	}
	c.Next()
}

const purgeInterval = 5 * time.Minute

// purge drops expired entries so IPs that never return do not accumulate.
func (rl *rateLimiter) purge() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		purged := 0
		for ip, entry := range rl.entries {
			if now.After(entry.windowEnd) {
				delete(rl.entries, ip)
				purged++
			}
		}
		remaining := len(rl.entries)
		rl.mu.Unlock()

		if purged > 0 {
			log.Debug().Int("purged", purged).Int("remaining", remaining).Msg("rate limiter map purged")
		}
	}
}
