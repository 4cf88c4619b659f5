package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var resolveRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisResolveRateLimiter implements distributed rate limiting for bank
// resolve attempts using Redis.
type RedisResolveRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisResolveRateLimiter(client redis.UniversalClient, prefix string) *RedisResolveRateLimiter {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "monetization:rate_limit"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisResolveRateLimiter{
		client: client,
		prefix: trimmedPrefix,
	}
}

// ConsumeRateLimit spends one resolve slot for the subject and reports
// whether the attempt is allowed. A disabled limiter (no client, no limit)
// always allows.
func (r *RedisResolveRateLimiter) ConsumeRateLimit(
	ctx context.Context,
	scope string,
	subject string,
	limit int,
	window time.Duration,
) (ThrottleDecision, error) {
	allowAll := ThrottleDecision{Allowed: true, Remaining: limit}
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return allowAll, nil
	}

	normalizedScope := strings.TrimSpace(scope)
	normalizedSubject := strings.TrimSpace(subject)
	if normalizedScope == "" || normalizedSubject == "" {
		return allowAll, nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s:%s", r.prefix, normalizedScope, normalizedSubject)
	rawResult, err := resolveRateLimitScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return ThrottleDecision{}, err
	}

	values, ok := rawResult.([]interface{})
	if !ok || len(values) != 2 {
		return ThrottleDecision{}, fmt.Errorf("unexpected redis limiter response shape: %T", rawResult)
	}

	currentCount, ok := values[0].(int64)
	if !ok {
		return ThrottleDecision{}, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}

	ttlMs, ok := values[1].(int64)
	if !ok {
		return ThrottleDecision{}, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfterSeconds := int64(math.Ceil(float64(ttlMs) / 1000.0))
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}

	decision := ThrottleDecision{
		Allowed:    currentCount <= int64(limit),
		Count:      int(currentCount),
		RetryAfter: time.Duration(retryAfterSeconds) * time.Second,
	}
	if remaining := int64(limit) - currentCount; remaining > 0 {
		decision.Remaining = int(remaining)
	}
	return decision, nil
}
