package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mocca-storefront/services/auth"
	"mocca-storefront/utils"
)

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

var defaultConfigs = map[string]RateLimitConfig{
	"/api/auth/login": {
		Requests: 5,
		Window:   15 * time.Minute,
		Message:  "Too many login attempts. Please try again in 15 minutes.",
	},
	"/api/admin/login": {
		Requests: 5,
		Window:   15 * time.Minute,
		Message:  "Too many login attempts. Please try again in 15 minutes.",
	},
	"/api/auth/send-otp": {
		Requests: 3,
		Window:   10 * time.Minute,
		Message:  "Too many OTP requests. Please wait 10 minutes.",
	},
	"/api/checkout/coupon": {
		Requests: 10,
		Window:   time.Minute,
		Message:  "Too many promo code attempts. Please wait a minute.",
	},
	"default": {
		Requests: 120,
		Window:   time.Minute,
		Message:  "Rate limit exceeded. Please slow down your requests.",
	},
}

// RateLimiter is a sliding-window limiter kept in a Redis sorted set per key.
type RateLimiter struct {
	client  *redis.Client
	configs map[string]RateLimitConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewRateLimiter(client *redis.Client, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client:  client,
		configs: defaultConfigs,
		logger:  logger,
		now:     time.Now,
	}
}

// Middleware enforces the limits. Redis failures let the request through.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			config := rl.configFor(r.URL.Path)
			key := rl.keyFor(r)

			allowed, remaining, resetTime, err := rl.check(r.Context(), key, config)
			if err != nil {
				rl.logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				rl.logger.Info("rate limit exceeded", zap.String("key", key), zap.String("path", r.URL.Path))
				retry := int64(resetTime.Sub(rl.now()).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
				utils.SendErrorResponse(w, http.StatusTooManyRequests, config.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) configFor(path string) RateLimitConfig {
	if config, ok := rl.configs[path]; ok {
		return config
	}
	return rl.configs["default"]
}

// keyFor scopes login attempts by client fingerprint, and everything else by
// shopper when one is logged in.
func (rl *RateLimiter) keyFor(r *http.Request) string {
	ip := clientIP(r)
	path := r.URL.Path

	if strings.HasSuffix(path, "/login") || strings.HasPrefix(path, "/api/auth/") {
		sum := sha256.Sum256([]byte(r.UserAgent()))
		return fmt.Sprintf("rate_limit:auth:%s:%s:%s", path, ip, hex.EncodeToString(sum[:4]))
	}
	if _, specific := rl.configs[path]; !specific {
		path = "default"
	}
	if uid := auth.FromContext(r.Context()).UserID(); uid != "" {
		return fmt.Sprintf("rate_limit:user:%s:%s", path, uid)
	}
	return fmt.Sprintf("rate_limit:ip:%s:%s", path, ip)
}

var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local limit = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local member = ARGV[4]
	local ttl = tonumber(ARGV[5])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)
	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl)
		return {1, limit - current - 1}
	end
	return {0, 0}
`)

func (rl *RateLimiter) check(ctx context.Context, key string, config RateLimitConfig) (bool, int, time.Time, error) {
	now := rl.now()
	windowStart := now.Add(-config.Window)

	result, err := slidingWindow.Run(ctx, rl.client, []string{key},
		windowStart.UnixMilli(), config.Requests, now.UnixMilli(), uuid.New().String(), config.Window.Milliseconds()).Result()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, time.Time{}, errors.New("unexpected rate limit result")
	}
	allowed, ok1 := values[0].(int64)
	remaining, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, time.Time{}, errors.New("unexpected rate limit result")
	}
	return allowed == 1, int(remaining), now.Add(config.Window), nil
}
