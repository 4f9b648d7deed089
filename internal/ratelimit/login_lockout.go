package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockoutKeyPrefix = "login:failures:"

// LoginLockout counts failed logins per account in Redis and locks the
// account once maxAttempts failures pile up inside the window.
// With a nil client every method is a no-op.
type LoginLockout struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginLockout constructs the lockout tracker.
func NewLoginLockout(client *redis.Client, maxAttempts int, window time.Duration) *LoginLockout {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLockout{client: client, maxAttempts: maxAttempts, window: window}
}

func (l *LoginLockout) enabled() bool {
	return l != nil && l.client != nil && l.maxAttempts > 0
}

// Locked reports whether the account is currently locked out.
func (l *LoginLockout) Locked(ctx context.Context, account string) (bool, error) {
	if !l.enabled() {
		return false, nil
	}
	count, err := l.client.Get(ctx, lockoutKey(account)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= int64(l.maxAttempts), nil
}

// RegisterFailure records one failed attempt. The window starts at the first
// failure; the counter and its TTL are written in one transaction.
func (l *LoginLockout) RegisterFailure(ctx context.Context, account string) error {
	if !l.enabled() {
		return nil
	}
	key := lockoutKey(account)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	return err
}

// Reset clears the failure count after a successful login.
func (l *LoginLockout) Reset(ctx context.Context, account string) error {
	if !l.enabled() {
		return nil
	}
	return l.client.Del(ctx, lockoutKey(account)).Err()
}

func lockoutKey(account string) string {
	return lockoutKeyPrefix + strings.ToLower(strings.TrimSpace(account))
}
