package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another process holds the lease.
var ErrLockHeld = fmt.Errorf("shared: lock already held")

// Lease is a best-effort distributed lock backed by redis SET NX. It
// protects scheduled jobs from double execution when more than one worker
// is deployed; it is not a fencing token.
type Lease struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewLease(client *redis.Client, key string, ttl time.Duration) *Lease {
	return &Lease{client: client, key: key, ttl: ttl}
}

// Acquire takes the lease or returns ErrLockHeld.
func (l *Lease) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return fmt.Errorf("shared: acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Release drops the lease. Safe to call when expired.
func (l *Lease) Release(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}

// DepreciationLockKey names the lease guarding one month's depreciation
// run.
func DepreciationLockKey(monthKey string) string {
	return "locks:depreciation:" + monthKey
}
