package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lumemarkets/lumebot/internal/domain"
)

const lockPrefix = "lock:"

// releaseTimeout bounds the conditional unlock, which runs on a background
// context so a lock still comes off after the caller's context is gone.
const releaseTimeout = 5 * time.Second

// releaseScript deletes a lease only while it still carries the holder's
// token, so a lease that expired and was re-acquired elsewhere cannot be
// released out from under the new holder.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// LockManager implements domain.LockManager as SETNX leases with a TTL.
// The merge sweep uses it to keep concurrent bot instances off the same
// market.
type LockManager struct {
	rdb *redis.Client
}

// NewLockManager creates a LockManager on the given client.
func NewLockManager(rdb *redis.Client) *LockManager {
	return &LockManager{rdb: rdb}
}

// Acquire takes the lease for key with the given TTL. On success it
// returns an idempotent release function. It returns domain.ErrLockHeld
// while another holder has the lease.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	leaseKey := lockPrefix + key

	ok, err := lm.rdb.SetNX(ctx, leaseKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			_ = releaseScript.Run(ctx, lm.rdb, []string{leaseKey}, token).Err()
		})
	}
	return release, nil
}

var _ domain.LockManager = (*LockManager)(nil)
