package middleware

import (
	"fmt"
	"net/http"
	"time"

	"flower_shop/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sliding window over a sorted set, evaluated atomically.
// KEYS[1]=key, ARGV[1]=now ms, ARGV[2]=window start ms, ARGV[3]=window ms,
// ARGV[4]=member, ARGV[5]=limit. Returns the new count, or -1 when limited.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowMs = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)
local count = redis.call('ZCARD', key)
if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, windowMs)
  return count + 1
end
return -1
`)

// RedisRateLimit allows limit requests per client IP and route within
// window. Redis failures let the request through.
func RedisRateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), c.ClientIP())
		now := time.Now().UnixMilli()
		windowMs := window.Milliseconds()

		res, err := slidingWindow.Run(c.Request.Context(), rdb, []string{key},
			now, now-windowMs, windowMs, uuid.NewString(), limit).Int()
		if err != nil {
			logger.LogError("rate limit %s: %v", key, err)
			c.Next()
			return
		}
		if res < 0 {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}
