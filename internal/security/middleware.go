package security

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// securityHeaders is the fixed set of headers attached to every response
// (spec §4.8).
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Content-Security-Policy":   "default-src 'self'",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
}

// errorBody is the JSON shape of a Security Gate rejection.
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
	ClientIP   string `json:"client_ip,omitempty"`
	UpgradeTo  string `json:"upgrade_to,omitempty"`
}

// Gate is the Security Gate middleware: HTTPS enforcement, rate limiting,
// and the fixed security-header set, wrapping an [http.Handler] in the
// teacher's func(http.Handler) http.Handler idiom
// (internal/observe/middleware.go).
type Gate struct {
	cfg       Config
	limiter   *RateLimiter
	validator *FileValidator
}

// NewGate builds a Gate over cfg, constructing its own [RateLimiter] and
// [FileValidator].
func NewGate(cfg Config) *Gate {
	cfg = cfg.withDefaults()
	return &Gate{cfg: cfg, limiter: NewRateLimiter(cfg.RateLimit), validator: NewFileValidator(cfg)}
}

// Limiter exposes the underlying rate limiter for stats/clear endpoints.
func (g *Gate) Limiter() *RateLimiter { return g.limiter }

// Validator exposes the underlying file validator for the upload endpoint.
func (g *Gate) Validator() *FileValidator { return g.validator }

// Config returns the Gate's effective configuration, for the
// /api/security/config endpoint.
func (g *Gate) Config() Config { return g.cfg }

// Middleware wraps next with the Security Gate (spec §4.8).
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.cfg.ForceHTTPS && r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
			writeJSON(w, http.StatusUpgradeRequired, errorBody{
				Error:     "HTTPS_REQUIRED",
				Message:   "HTTPS 연결이 필요합니다",
				UpgradeTo: "https",
			})
			return
		}

		clientIP := ClientIP(r, g.cfg.TrustedProxies)
		if !g.limiter.Allow(clientIP) {
			retryAfter := int(g.cfg.RateLimit.BlockDuration / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, errorBody{
				Error:      "RATE_LIMIT_EXCEEDED",
				Message:    "요청 한도를 초과했습니다",
				RetryAfter: retryAfter,
				ClientIP:   clientIP,
			})
			return
		}

		for header, value := range securityHeaders {
			w.Header().Set(header, value)
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(g.cfg.RateLimit.MaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(g.limiter.Remaining(clientIP)))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(g.cfg.RateLimit.TimeWindow).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
