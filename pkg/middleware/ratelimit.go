package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/caseflow-io/caseflow/pkg/httputil"
	"github.com/caseflow-io/caseflow/pkg/observability"
)

// LoginRateLimiter throttles credential-guessing with a Redis-backed
// fixed window per client IP. Shared across instances. On Redis errors
// it fails open so an unavailable Redis never locks out logins.
type LoginRateLimiter struct {
	redis  *redis.Client
	logger *observability.Logger
	limit  int
	window time.Duration
	prefix string
}

// NewLoginRateLimiter creates a login rate limiter
func NewLoginRateLimiter(redisClient *redis.Client, limit int, window time.Duration, logger *observability.Logger) *LoginRateLimiter {
	return &LoginRateLimiter{
		redis:  redisClient,
		logger: logger,
		limit:  limit,
		window: window,
		prefix: "ratelimit:login",
	}
}

// Allow checks whether another attempt from this key is within limits
func (rl *LoginRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(rl.limit), nil
}

// Reset clears the window for a key
func (rl *LoginRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}

// Handler wraps a handler with per-IP rate limiting
func (rl *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := rl.Allow(r.Context(), clientIP(r))
		if err != nil {
			// fail open, but make the failure visible
			rl.logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			httputil.WriteTooManyRequests(w, "too many attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
