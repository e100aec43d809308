package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimiter is a fixed-window limiter keyed by client IP and shared through
// Redis so every API instance sees the same counters.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	log    zerolog.Logger
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string, log zerolog.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RateLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix, log: log}
}

// Middleware rejects requests over the limit with 429. Redis errors let the
// request through.
func (rl *RateLimiter) Middleware() drift.HandlerFunc {
	return func(c *drift.Context) {
		key := rl.prefix + ":" + clientIP(c.Request)
		count, err := rl.incr(c.Request.Context(), key)
		if err != nil {
			rl.log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if count > int64(rl.limit) {
			c.Response.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			_ = c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "too many attempts, try again later",
				Kind:  string(apperror.KindRateLimited),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) incr(ctx context.Context, key string) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, rl.rdb, []string{key}, rl.window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
