package config

import "time"

// RateLimitConfig configures the Redis token bucket applied to /v1.
// Reads cost one token; writes (holds, transitions, catalog edits) cost
// WriteCost so a client hammering the hold endpoint runs dry first.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	WriteCost      int
	TTL            time.Duration
	KeyStrategy    string // ip, user, route, ip_user, ip_route, user_route, company or ip_user_route
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* and clamps the values into a
// usable bucket.
func LoadRateLimitConfig() RateLimitConfig {
	rl := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		WriteCost:      envInt("RATE_LIMIT_WRITE_COST", 2),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		rl.RefillTokens = 1
		rl.RefillInterval = every
	}
	rl.Capacity = max(rl.Capacity, 1)
	rl.RefillTokens = max(rl.RefillTokens, 1)
	rl.WriteCost = min(max(rl.WriteCost, 1), rl.Capacity)
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	rl.TTL = max(rl.TTL, 5*rl.RefillInterval)
	return rl
}

// Cost returns the tokens a request with method consumes.
func (rl RateLimitConfig) Cost(method string) int {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return 1
	}
	return rl.WriteCost
}
