package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/symbohub-api/pkg/cache"
)

// LoginAttemptRepository keeps failed login counters in Redis. With a nil
// client every method is a no-op.
type LoginAttemptRepository struct {
	client *redis.Client
}

// NewLoginAttemptRepository constructs repository.
func NewLoginAttemptRepository(client *redis.Client) *LoginAttemptRepository {
	return &LoginAttemptRepository{client: client}
}

func attemptKey(scope, identifier string) string {
	return cache.Key("login-failures", scope, identifier)
}

// Failures returns the current failure count.
func (r *LoginAttemptRepository) Failures(ctx context.Context, scope, identifier string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	n, err := r.client.Get(ctx, attemptKey(scope, identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get login failures: %w", err)
	}
	return n, nil
}

// RecordFailure increments the counter, starting the window on the first failure.
func (r *LoginAttemptRepository) RecordFailure(ctx context.Context, scope, identifier string, window time.Duration) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	key := attemptKey(scope, identifier)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis record login failure: %w", err)
	}
	return incr.Val(), nil
}

// Reset clears the counter after a successful login.
func (r *LoginAttemptRepository) Reset(ctx context.Context, scope, identifier string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, attemptKey(scope, identifier)).Err(); err != nil {
		return fmt.Errorf("redis reset login failures: %w", err)
	}
	return nil
}
