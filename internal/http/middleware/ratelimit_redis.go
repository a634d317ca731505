package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter on Redis INCR/EXPIRE. With a nil
// client, or on Redis errors, it fails open.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// ByIP limits requests per client IP.
// key format: rl:<name>:<window_seconds>:<ip>
func (l *RateLimiter) ByIP(name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return l.limit(name, maxRequests, window, func(c *gin.Context) (string, bool) {
		return c.ClientIP(), true
	})
}

// ByPlayer limits requests per authenticated player. Must run after
// Authenticate.
// key format: rl:<name>:<window_seconds>:p<player_id>
func (l *RateLimiter) ByPlayer(name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return l.limit(name, maxRequests, window, func(c *gin.Context) (string, bool) {
		id, ok := PlayerID(c)
		if !ok {
			return "", false
		}
		return "p" + strconv.FormatInt(id, 10), true
	})
}

func (l *RateLimiter) limit(name string, maxRequests int, window time.Duration, ident func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.client == nil {
			c.Next()
			return
		}

		id, ok := ident(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		val, err := l.incr(c.Request.Context(), name, id, window)
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(name).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(name).Inc()
		c.Next()
	}
}

// Allow counts one hit for id outside of an HTTP request, e.g. for websocket
// messages. It reports true when Redis is absent or fails.
func (l *RateLimiter) Allow(ctx context.Context, name, id string, maxRequests int, window time.Duration) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}

	val, err := l.incr(ctx, name, id, window)
	if err != nil {
		return true, err
	}
	if val > int64(maxRequests) {
		RLBlocked.WithLabelValues(name).Inc()
		return false, nil
	}
	RLRequests.WithLabelValues(name).Inc()
	return true, nil
}

// key format: rl:<name>:<window_seconds>:<id>
func (l *RateLimiter) incr(ctx context.Context, name, id string, window time.Duration) (int64, error) {
	key := "rl:" + name + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + id

	val, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		l.client.Expire(ctx, key, window)
	}
	return val, nil
}
