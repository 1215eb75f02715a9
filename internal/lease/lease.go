// Package lease implements the gathering-ownership lock: a Redis-backed
// lease that ensures at most one process owns the live gathering for a
// given tournament at a time.
package lease

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"tournament-core/internal/ids"
)

const keyPrefix = "gathering-lease:"

// Lease is a Redis-backed distributed lock scoped to one tournament id.
// Only the holder of record may renew or release it; a lease that isn't
// renewed before it expires is free for another process to acquire,
// which is what lets a crashed holder's gathering be re-spawned elsewhere.
type Lease struct {
	client *redis.Client
	logger *log.Logger
	ttl    time.Duration
}

// New builds a lease manager against an existing Redis client.
func New(client *redis.Client, logger *log.Logger, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Lease{client: client, logger: logger, ttl: ttl}
}

func key(id ids.TournamentID) string { return keyPrefix + id.String() }

// Acquire attempts to become the owner for a tournament id, returning
// whether it succeeded. ownerToken should be a value unique to this
// process (e.g. a gathering hall instance id) so Renew/Release can
// verify it's still the same owner via a read-then-compare; a true SetNX
// already guards against two owners winning at once.
func (l *Lease) Acquire(ctx context.Context, id ids.TournamentID, ownerToken string) (bool, error) {
	ok, err := l.client.SetNX(ctx, key(id), ownerToken, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lease: acquire %s: %w", id, err)
	}
	return ok, nil
}

// Renew extends the lease's TTL, but only if ownerToken still matches the
// current holder — a stale renew after losing ownership is a no-op.
func (l *Lease) Renew(ctx context.Context, id ids.TournamentID, ownerToken string) (bool, error) {
	held, err := l.client.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lease: renew %s: %w", id, err)
	}
	if held != ownerToken {
		return false, nil
	}
	if err := l.client.Expire(ctx, key(id), l.ttl).Err(); err != nil {
		return false, fmt.Errorf("lease: renew expire %s: %w", id, err)
	}
	return true, nil
}

// Release gives up the lease, but only if ownerToken still matches the
// current holder.
func (l *Lease) Release(ctx context.Context, id ids.TournamentID, ownerToken string) error {
	held, err := l.client.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lease: release %s: %w", id, err)
	}
	if held != ownerToken {
		return nil
	}
	if err := l.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("lease: release del %s: %w", id, err)
	}
	return nil
}

// RenewLoop periodically renews the lease until ctx is cancelled or a
// renewal fails to find this token still holding it, at which point it
// logs and returns so the caller can react (typically: stop the
// gathering, since another process now owns the tournament).
func (l *Lease) RenewLoop(ctx context.Context, id ids.TournamentID, ownerToken string) {
	interval := l.ttl / 3
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := l.Renew(ctx, id, ownerToken)
			if err != nil {
				l.logger.Printf("lease: renew error for %s: %v", id, err)
				continue
			}
			if !ok {
				l.logger.Printf("lease: lost ownership of %s", id)
				return
			}
		}
	}
}
