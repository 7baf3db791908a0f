package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/notebrief/core/internal/pkg/response"
)

const rateLimitWindow = time.Minute

// RateLimit caps requests per client IP over a one-minute window.
// The limiter fails open: redis trouble never blocks a request.
func RateLimit(rdb *redis.Client, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || perMinute < 1 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := time.Now()
		windowKey := now.Unix() / int64(rateLimitWindow/time.Second)
		key := fmt.Sprintf("nb:rate_limit:%s:%d", ip, windowKey)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}

		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > int64(perMinute) {
			retryAfter := int64(rateLimitWindow/time.Second) - now.Unix()%int64(rateLimitWindow/time.Second)
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.TooManyRequests(c, "Too many uploads, give the summarizer a minute to catch up")
			return
		}

		c.Next()
	}
}
