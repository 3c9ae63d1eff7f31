package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "remittance:rate_limit"

// Fixed window: the first hit in a window sets its expiry.
var fixedWindowScript = redis.NewScript(`
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

type Rule struct {
	Scope  string
	Limit  int
	Window time.Duration
}

type Decision struct {
	Allowed    bool
	Count      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per scope and subject in Redis so every API
// replica shares the same windows.
type Limiter struct {
	client redis.Scripter
	prefix string
}

func NewLimiter(client redis.Scripter, prefix string) *Limiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Limiter{client: client, prefix: prefix}
}

func (l *Limiter) Allow(ctx context.Context, rule Rule, subject string) (Decision, error) {
	subject = strings.TrimSpace(subject)
	if l == nil || l.client == nil || rule.Limit <= 0 || rule.Window <= 0 || subject == "" {
		return Decision{Allowed: true}, nil
	}

	windowMs := max(rule.Window.Milliseconds(), 1000)
	key := l.prefix + ":" + rule.Scope + ":" + subject

	raw, err := fixedWindowScript.Run(ctx, l.client, []string{key}, windowMs).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("Allow: %w", err)
	}

	values, ok := raw.([]any)
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("Allow: unexpected limiter response %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("Allow: unexpected count type %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok || ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter := time.Duration(ttlMs) * time.Millisecond
	return Decision{
		Allowed:    int(count) <= rule.Limit,
		Count:      int(count),
		Remaining:  max(rule.Limit-int(count), 0),
		RetryAfter: max(retryAfter.Round(time.Second), time.Second),
	}, nil
}
