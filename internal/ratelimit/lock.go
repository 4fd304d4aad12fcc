package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	redis "github.com/redis/go-redis/v9"
)

var errLockNotConfigured = errors.New("sync lock client not configured")

// compare-and-delete so a replica never drops a lease another one re-acquired
// after expiry.
const releaseLeaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// leaseLock hands out expiring, token-owned leases on redis keys.
type leaseLock struct {
	client  *redis.Client
	release *redis.Script
}

func newLeaseLock(client *redis.Client) *leaseLock {
	if client == nil {
		return nil
	}
	return &leaseLock{
		client:  client,
		release: redis.NewScript(releaseLeaseScript),
	}
}

// acquire returns the lease token, or ok=false when the key is already held.
func (l *leaseLock) acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	if l == nil {
		return "", false, errLockNotConfigured
	}
	if key == "" || ttl <= 0 {
		return "", false, errors.New("sync lock requires a key and a positive ttl")
	}

	token = ulid.Make().String()
	ok, err = l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *leaseLock) drop(ctx context.Context, key, token string) error {
	if l == nil || key == "" || token == "" {
		return nil
	}
	return l.release.Run(ctx, l.client, []string{key}, token).Err()
}
