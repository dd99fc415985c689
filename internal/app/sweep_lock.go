/**
 * @description
 * Cross-instance sweep lease backed by Redis. Only one service instance may
 * run the sweep at a time in a multi-instance deployment; the lease degrades
 * to a no-op when Redis is not configured, matching single-instance behavior.
 */
package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "solpay:recurring:sweep_lease"

// Release only deletes the lease if this instance still owns it.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSweepLock implements SweepLock using a SET NX lease. The client is
// kept as a concrete pointer so a typed-nil *redis.Client from bootstrap
// still hits the nil checks below instead of a nil-pointer call.
type RedisSweepLock struct {
	client  *redis.Client
	ownerID string
	ttl     time.Duration
}

// NewRedisSweepLock creates a sweep lease with the given TTL. A nil client
// yields a lock that always acquires.
func NewRedisSweepLock(client *redis.Client, ttl time.Duration) *RedisSweepLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisSweepLock{
		client:  client,
		ownerID: uuid.NewString(),
		ttl:     ttl,
	}
}

// Acquire tries to take the sweep lease. It returns false when another
// instance holds it.
func (l *RedisSweepLock) Acquire(ctx context.Context) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, sweepLockKey, l.ownerID, l.ttl).Result()
}

// Release gives the lease back. Errors are intentionally dropped: the TTL
// bounds how long a stale lease can block other instances.
func (l *RedisSweepLock) Release(ctx context.Context) {
	if l == nil || l.client == nil {
		return
	}
	_ = releaseLockScript.Run(ctx, l.client, []string{sweepLockKey}, l.ownerID).Err()
}
