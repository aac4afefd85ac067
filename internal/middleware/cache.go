package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/config"
)

// cachedResponse is what a cache entry holds.  Body is base64 in JSON.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// recorder tees the response body into buf up to limit bytes.
type recorder struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.truncated {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.truncated = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cacheKeyFrom builds the key for the current request.  The company is
// both a key segment (for InvalidateCompany) and part of the hashed
// material, so two tenants never see each other's fleet or prices.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	material := []string{"company=" + companyID(c), "path=" + r.URL.Path}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		material = append(material, "route="+c.Path())
	case "method_route":
		material = append(material, "method="+r.Method, "route="+c.Path())
	case "method_route_query":
		material = append(material, "method="+r.Method, "route="+c.Path(), "q="+r.URL.RawQuery)
	default:
		material = append(material, "route="+c.Path(), "q="+r.URL.RawQuery)
	}
	sum := sha1.Sum([]byte(strings.Join(material, "|")))
	return fmt.Sprintf("%s:%s:%x", cfg.Prefix, companyID(c), sum)
}

func replay(c echo.Context, cr cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range cr.Header {
		if strings.EqualFold(k, echo.HeaderContentLength) {
			continue
		}
		h[k] = append([]string(nil), vals...)
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(cr.Status)
	_, err := c.Response().Write(cr.Body)
	return err
}

// NewRedisCache caches 200 responses of the wrapped reads in Redis,
// headers included, keyed per company.  Only requests with a resolved
// caller are cached.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			if _, ok := ActorFrom(c); !ok {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			raw, err := rdb.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				var cr cachedResponse
				if json.Unmarshal(raw, &cr) == nil && cr.Status != 0 {
					return replay(c, cr)
				}
			case !errors.Is(err, redis.Nil):
				Logger(c, log).Warn("cache: redis get failed", zap.Error(err))
			}

			rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.truncated {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := json.Marshal(cachedResponse{Status: rec.status, Header: hdr, Body: rec.buf.Bytes()})
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				Logger(c, log).Warn("cache: redis set failed", zap.Error(err))
			}
			return nil
		}
	}
}

// InvalidateCompany drops every cached response of a company.  Fleet and
// pricing writes call it so the next read is fresh.
func InvalidateCompany(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client, companyID uint64) error {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	var keys []string
	iter := rdb.Scan(ctx, 0, fmt.Sprintf("%s:%d:*", cfg.Prefix, companyID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return rdb.Unlink(ctx, keys...).Err()
}
