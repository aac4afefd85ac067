package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/config"
)

// takeScript refills the bucket at KEYS[1] and tries to take ARGV[5]
// tokens in one round trip.  It returns {allowed, remaining, retry_ms}.
var takeScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local every = tonumber(ARGV[4])
local cost = tonumber(ARGV[5])
local ttl_ms = tonumber(ARGV[6])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last = tonumber(redis.call('HGET', KEYS[1], 'last_ms'))
if tokens == nil or last == nil then
    tokens, last = capacity, now
end

local steps = math.floor(math.max(0, now - last) / every)
if steps > 0 then
    tokens = math.min(capacity, tokens + steps * refill)
    last = last + steps * every
end

local allowed, retry = 0, 0
if tokens >= cost then
    allowed = 1
    tokens = tokens - cost
else
    local missing = math.ceil((cost - tokens) / refill)
    retry = math.max(0, missing * every - (now - last))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_ms', last)
redis.call('PEXPIRE', KEYS[1], ttl_ms)
return { allowed, tokens, retry }
`)

// decision is the parsed result of takeScript.
type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

func parseDecision(v interface{}) (decision, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return decision{}, false
	}
	n := make([]int64, 3)
	for i, x := range arr {
		switch t := x.(type) {
		case int64:
			n[i] = t
		case string:
			p, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return decision{}, false
			}
			n[i] = p
		default:
			return decision{}, false
		}
	}
	return decision{allowed: n[0] == 1, remaining: n[1], retry: time.Duration(n[2]) * time.Millisecond}, true
}

// NewTokenBucket limits requests with a Redis token bucket keyed by
// cfg.KeyStrategy.  Redis errors fail open: the request proceeds and the
// error is logged.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			res, err := takeScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				cfg.Cost(c.Request().Method),
				cfg.TTL.Milliseconds(),
			).Result()
			if err != nil {
				log.Warn("rate limit: redis error", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			d, ok := parseDecision(res)
			if !ok {
				log.Warn("rate limit: unexpected script result", zap.String("key", key), zap.Any("result", res))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.allowed {
				return next(c)
			}
			secs := int((d.retry + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			Logger(c, log).Debug("rate limited", zap.String("key", key), zap.Duration("retry", d.retry))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate_limited",
				"message":     "too many requests, retry later",
				"retry_after": secs,
			})
		}
	}
}

// buildRateKey joins the parts selected by cfg.KeyStrategy.  The route is
// the registered pattern, so /v1/bookings/7/confirm and /v1/bookings/8/confirm
// share a bucket.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	part := map[string][]string{
		"ip":      {"ip", ip},
		"user":    {"user", userID(c)},
		"company": {"company", companyID(c)},
		"route":   {"route", c.Request().Method + " " + c.Path()},
	}
	strategy := strings.ToLower(cfg.KeyStrategy)
	var names []string
	switch strategy {
	case "ip", "user", "company", "route":
		names = []string{strategy}
	case "ip_user", "ip_route", "user_route":
		names = strings.SplitN(strategy, "_", 2)
	default:
		names = []string{"ip", "user", "route"}
	}
	parts := []string{cfg.Prefix}
	for _, n := range names {
		parts = append(parts, part[n]...)
	}
	return strings.Join(parts, ":")
}
