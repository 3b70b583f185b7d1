package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed window request counter per client key.
type RateLimiter struct {
	client redis.Cmdable
	max    int
	window time.Duration
}

func NewRateLimiter(client redis.Cmdable, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, max: max, window: window}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

func rateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}

// Allow counts one request for client and reports whether it fits the window.
func (l *RateLimiter) Allow(ctx context.Context, client string) (Decision, error) {
	key := rateLimitKey(client)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, errors.Wrap(err, "count request")
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, errors.Wrap(err, "start rate window")
		}
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, errors.Wrap(err, "read rate window")
	}
	if ttl < 0 {
		// window key lost its expiry; start a new one
		l.client.Expire(ctx, key, l.window)
		ttl = l.window
	}

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(count) <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		ResetIn:   ttl,
	}, nil
}
