package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"golang.org/x/time/rate"
)

// maxIdleClients is the map size above which idle clients are swept
const maxIdleClients = 10000

// RateLimiter keeps a token bucket per client. Each bucket holds limit
// tokens and refills them evenly over period.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	period  time.Duration
	every   rate.Limit
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows limit requests per period and key
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	limit = max(limit, 1)
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		period:  period,
		every:   rate.Every(period / time.Duration(limit)),
		now:     time.Now,
	}
}

// Allow consumes one token for key and returns the whole tokens left
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= maxIdleClients {
			rl.sweep(now)
		}
		c = &client{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	allowed := c.limiter.AllowN(now, 1)
	return allowed, max(int(c.limiter.TokensAt(now)), 0)
}

// sweep drops clients idle for a full period, whose buckets are full again
func (rl *RateLimiter) sweep(now time.Time) {
	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) >= rl.period {
			delete(rl.clients, key)
		}
	}
}

// RateLimit limits by authenticated user, falling back to the client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID := c.GetString(JWTUserIDKey); userID != "" {
			key = "user:" + userID
		}

		ok, remaining := limiter.Allow(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(limiter.retryAfter().Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many requests. Please try again later.", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// retryAfter is the time one token takes to refill, at least a second
func (rl *RateLimiter) retryAfter() time.Duration {
	return max(rl.period/time.Duration(rl.limit), time.Second)
}
