// Package ratelimit is a Redis sliding-window limiter. The API uses it to
// slow down credential guessing on the auth routes.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config bounds how many requests a key may make per window.
type Config struct {
	RequestsPerWindow int
	WindowSize        time.Duration
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	Limit() int
}

// slidingWindowScript trims the window, counts what is left and records the
// new request only when it fits. It returns {allowed, remaining, retry_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)

	if count < limit then
		local seq = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. seq)
		redis.call('PEXPIRE', key, window_ms)
		redis.call('PEXPIRE', counter_key, window_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry_ms = 0
	if #oldest >= 2 then
		retry_ms = oldest[2] + window_ms - now
	end
	return {0, 0, retry_ms}
`)

// SlidingWindowLimiter keeps one sorted set of request timestamps per key.
type SlidingWindowLimiter struct {
	client redis.Scripter
	config Config
	prefix string
	now    func() time.Time
}

func NewSlidingWindowLimiter(client redis.Scripter, config Config, prefix string) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		config: config,
		prefix: prefix,
		now:    time.Now,
	}
}

func (l *SlidingWindowLimiter) Limit() int {
	return l.config.RequestsPerWindow
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	redisKey := l.prefix + key

	raw, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey, redisKey + ":counter"},
		now.UnixMilli(),
		now.Add(-l.config.WindowSize).UnixMilli(),
		l.config.RequestsPerWindow,
		l.config.WindowSize.Milliseconds(),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("run rate limit script: %w", err)
	}

	return parseResult(raw, now, l.config.WindowSize)
}

func parseResult(raw []interface{}, now time.Time, window time.Duration) (*Result, error) {
	if len(raw) < 3 {
		return nil, fmt.Errorf("unexpected rate limit reply length: %d", len(raw))
	}

	values := make([]int64, 3)
	for i := range values {
		v, ok := raw[i].(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected rate limit reply type at %d: %T", i, raw[i])
		}
		values[i] = v
	}

	result := &Result{
		Allowed:   values[0] == 1,
		Remaining: int(values[1]),
		ResetAt:   now.Add(window),
	}
	if !result.Allowed && values[2] > 0 {
		result.RetryAfter = time.Duration(values[2]) * time.Millisecond
	}
	return result, nil
}
