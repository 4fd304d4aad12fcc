package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/paybridge/internal/config"
)

const (
	keyWebhook  = "paybridge:webhook:%s:%s"
	keySyncLock = "paybridge:sync:lock:%s:%s"
)

// Limiter throttles inbound webhooks per platform and user and serializes
// sync runs across replicas. A nil or disabled Limiter allows everything.
type Limiter struct {
	enabled bool
	client  *redis.Client

	bucket *TokenBucket
	lease  *leaseLock

	webhookRate  float64
	webhookBurst int
	lockTTL      time.Duration
}

func NewLimiter(cfg config.Config) (*Limiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.WebhookRate <= 0 || limitCfg.WebhookBurst <= 0 {
		return nil, errors.New("webhook rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	return NewLimiterWithClient(client, cfg), nil
}

func NewLimiterWithClient(client *redis.Client, cfg config.Config) *Limiter {
	lockTTL := cfg.Sync.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &Limiter{
		enabled:      client != nil,
		client:       client,
		bucket:       NewTokenBucket(client),
		lease:        newLeaseLock(client),
		webhookRate:  cfg.RateLimit.WebhookRate,
		webhookBurst: cfg.RateLimit.WebhookBurst,
		lockTTL:      lockTTL,
	}
}

// Close releases the redis pool. Safe on a nil Limiter.
func (l *Limiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *Limiter) AllowWebhook(ctx context.Context, platformID, userID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, WebhookKey(platformID, userID), l.webhookRate, l.webhookBurst)
}

// TryLockSync claims the sync slot of one integration. ok is false when
// another replica holds it.
func (l *Limiter) TryLockSync(ctx context.Context, userID, platformID string) (token string, ok bool, err error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.lease.acquire(ctx, SyncLockKey(userID, platformID), l.lockTTL)
}

func (l *Limiter) ReleaseSync(ctx context.Context, userID, platformID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.lease.drop(ctx, SyncLockKey(userID, platformID), token)
}

func WebhookKey(platformID, userID string) string {
	return fmt.Sprintf(keyWebhook, strings.TrimSpace(platformID), strings.TrimSpace(userID))
}

func SyncLockKey(userID, platformID string) string {
	return fmt.Sprintf(keySyncLock, strings.TrimSpace(platformID), strings.TrimSpace(userID))
}
