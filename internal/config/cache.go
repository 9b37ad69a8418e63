package config

import "time"

// CacheConfig defines settings for the response cache applied to the
// derived boarding endpoints (sequence and PDF sheet). Those responses
// are recomputed from a date's bookings on every request, so a short
// cache absorbs repeated refreshes without risking stale booking lists:
// the mutable booking routes are never cached.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 10*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
