package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-task-portal/internal/config"
)

const tooManyRequests = "Too many requests from this IP, please try again later."

// takeToken refills the bucket stored at KEYS[1] for the whole intervals
// elapsed since its last refill, then spends one token if any is left.
// ARGV: now_ms, capacity, refill, interval_ms, ttl_ms.
// Returns {allowed, remaining, wait_ms}.
var takeToken = redis.NewScript(`
local now, cap, refill, step, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local tokens = tonumber(redis.call('HGET', KEYS[1], 't'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 'ts'))
if not tokens or not stamp then
    tokens, stamp = cap, now
end

local steps = math.floor(math.max(0, now - stamp) / step)
if steps > 0 then
    tokens = math.min(cap, tokens + steps * refill)
    stamp = stamp + steps * step
end

local ok, wait = 0, 0
if tokens >= 1 then
    ok, tokens = 1, tokens - 1
else
    wait = math.max(0, step - (now - stamp))
end

redis.call('HSET', KEYS[1], 't', tokens, 'ts', stamp)
redis.call('PEXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

type bucketResult struct {
	allowed   bool
	remaining int64
	wait      time.Duration
}

type tokenBucket struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	now func() time.Time
}

func (b *tokenBucket) take(ctx context.Context, key string) (bucketResult, error) {
	vals, err := takeToken.Run(ctx, b.rdb, []string{key},
		b.now().UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		b.cfg.TTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return bucketResult{}, err
	}
	if len(vals) != 3 {
		return bucketResult{}, fmt.Errorf("rate limit script returned %d values", len(vals))
	}
	return bucketResult{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		wait:      time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits requests per key with a Redis token bucket. It is a
// no-op when limiting is disabled or rdb is nil, and fails open when a
// single Redis call errors.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	bucket := &tokenBucket{cfg: cfg, rdb: rdb, now: time.Now}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			res, err := bucket.take(c.Request().Context(), key)
			if err != nil {
				log.WithError(err).WithField("key", key).Warn("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.allowed {
				return next(c)
			}

			retry := int((res.wait + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(retry))
			if cfg.Debug {
				log.WithFields(logrus.Fields{"key": key, "retry_after": retry}).Info("rate limited")
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       tooManyRequests,
				"retry_after": retry,
			})
		}
	}
}

// buildRateKey composes the bucket key from the configured strategy. Any
// unknown strategy keys on ip, user and route together.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	dims := map[string]string{
		"ip":    ip,
		"user":  userID(c),
		"route": c.Request().Method + " " + c.Path(),
	}

	var use []string
	switch s := strings.ToLower(cfg.KeyStrategy); s {
	case "ip", "user", "route":
		use = []string{s}
	case "ip_user", "ip_route", "user_route":
		use = strings.SplitN(s, "_", 2)
	default:
		use = []string{"ip", "user", "route"}
	}

	parts := []string{cfg.Prefix}
	for _, d := range use {
		parts = append(parts, d, dims[d])
	}
	return strings.Join(parts, ":")
}
