// Package coordination provides a Redis-backed distributed lock used
// to serialize concurrent updateFacilityCounts writers across API
// instances, adapted from internal/cache's SETNX+TTL lock pattern
// (originally used there for route-result cache stampede control).
package coordination

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the Redis connection settings for the Locker.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
	LockTTL  time.Duration
}

// Locker acquires and releases a single named distributed lock backed
// by Redis SETNX. It does not cache route results — its only job is
// to keep concurrent facility-count writers from interleaving.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker dials Redis eagerly and returns a ready Locker.
func NewLocker(cfg Config) *Locker {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Locker{client: redis.NewClient(opts), ttl: ttl}
}

// Close releases the underlying Redis connection pool.
func (l *Locker) Close() error {
	return l.client.Close()
}

// Ping verifies connectivity, used for the health endpoint.
func (l *Locker) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

const facilityWriteLockKey = "lock:facility-counts"

// AcquireFacilityWriteLock attempts to take the single global
// facility-write lock, returning false if another writer holds it.
func (l *Locker) AcquireFacilityWriteLock(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, facilityWriteLockKey, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire facility write lock: %w", err)
	}
	return ok, nil
}

// ReleaseFacilityWriteLock drops the lock early instead of waiting out its TTL.
func (l *Locker) ReleaseFacilityWriteLock(ctx context.Context) error {
	if err := l.client.Del(ctx, facilityWriteLockKey).Err(); err != nil {
		return fmt.Errorf("release facility write lock: %w", err)
	}
	return nil
}

// WaitForFacilityWriteLock polls until the lock is free or ctx expires,
// used by a writer that lost the race to avoid retrying a busy loop
// without backoff.
func (l *Locker) WaitForFacilityWriteLock(ctx context.Context, poll time.Duration) error {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		exists, err := l.client.Exists(ctx, facilityWriteLockKey).Result()
		if err != nil {
			return fmt.Errorf("check facility write lock: %w", err)
		}
		if exists == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
