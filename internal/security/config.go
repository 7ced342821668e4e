// Package security implements the Security Gate (spec §4.8): per-client
// sliding-window rate limiting with a block list, trusted-proxy-aware
// client-IP extraction, upload file validation, and the fixed set of
// security response headers.
//
// Grounded on original_source's api/security.py (RateLimiter, FileValidator,
// SecurityMiddleware), generalized to the teacher's stdlib
// func(http.Handler) http.Handler middleware idiom (internal/observe/middleware.go).
package security

import "time"

// RateLimitConfig mirrors the original's RateLimitConfig dataclass (spec §4.8).
type RateLimitConfig struct {
	// MaxRequests is the request budget per TimeWindow. Default 100.
	MaxRequests int
	// TimeWindow is the sliding window requests are counted over. Default 1h.
	TimeWindow time.Duration
	// BlockDuration is how long an over-limit client stays blocked. Default 1h.
	BlockDuration time.Duration
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.MaxRequests <= 0 {
		c.MaxRequests = 100
	}
	if c.TimeWindow <= 0 {
		c.TimeWindow = time.Hour
	}
	if c.BlockDuration <= 0 {
		c.BlockDuration = time.Hour
	}
	return c
}

// Config is the Security Gate's full configuration (spec §4.8).
type Config struct {
	MaxFileSize       int64
	AllowedExtensions []string
	AllowedMIMETypes  []string
	ForceHTTPS        bool
	RateLimit         RateLimitConfig
	// TrustedProxies is the set of peer addresses allowed to set
	// X-Forwarded-For/X-Real-IP; empty means neither header is trusted.
	TrustedProxies []string
}

func (c Config) withDefaults() Config {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 10 * 1024 * 1024
	}
	if len(c.AllowedExtensions) == 0 {
		c.AllowedExtensions = []string{".wav"}
	}
	if len(c.AllowedMIMETypes) == 0 {
		c.AllowedMIMETypes = []string{"audio/wav", "audio/x-wav"}
	}
	c.RateLimit = c.RateLimit.withDefaults()
	return c
}
