package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// gcraScript stores one theoretical arrival time (ms) per key. A request is
// admitted while the arrival time stays within burst*interval of now.
// Returns {allowed, retry_after_ms, backlog_ms, now_ms}.
const gcraScript = `
local interval = tonumber(ARGV[1])
local tolerance = tonumber(ARGV[2])

local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local tat = tonumber(redis.call("GET", KEYS[1]))
if tat == nil or tat < now then
  tat = now
end

local next_tat = tat + interval
local allow_at = next_tat - tolerance
if allow_at > now then
  return {0, math.ceil(allow_at - now), math.ceil(tat - now), now}
end

redis.call("SET", KEYS[1], math.ceil(next_tat), "PX", math.ceil(next_tat - now))
return {1, 0, math.ceil(next_tat - now), now}
`

// RateLimitResult reports one admission decision.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// TokenBucket is a redis GCRA limiter shared by every replica.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client, script: redis.NewScript(gcraScript)}
}

// Allow spends one token from key, refilling at rate per second up to burst.
func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	switch {
	case t == nil:
		return nil, errors.New("rate limiter not configured")
	case key == "":
		return nil, errors.New("rate limiter key is empty")
	case rate <= 0 || burst <= 0:
		return nil, errors.New("rate limiter needs a positive rate and burst")
	}

	interval := emissionInterval(rate)
	raw, err := t.script.Run(ctx, t.client, []string{key}, interval, interval*int64(burst)).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(raw) != 4 {
		return nil, fmt.Errorf("rate limit script returned %d values", len(raw))
	}
	return gcraResult(raw[0] == 1, raw[1], raw[2], raw[3], interval, burst), nil
}

// emissionInterval is the spacing between admitted requests in milliseconds.
func emissionInterval(rate float64) int64 {
	return max(int64(math.Ceil(1000/rate)), 1)
}

func gcraResult(allowed bool, retryMs, backlogMs, nowMs, interval int64, burst int) *RateLimitResult {
	remaining := burst - int(math.Ceil(float64(backlogMs)/float64(interval)))
	if remaining < 0 {
		remaining = 0
	}
	now := time.UnixMilli(nowMs)
	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  remaining,
		ResetTime:  now.Add(time.Duration(backlogMs) * time.Millisecond),
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}
}
