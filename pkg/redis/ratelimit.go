package redis

import (
	"context"
	"time"
)

// FixedWindowAllow counts one hit for scope in the current window and
// reports whether the count stays within limit.
//
// The window starts with the first INCR, which also sets the expiry. A
// counter that lost its expiry (process died between INCR and EXPIRE) is
// re-armed on the next hit so it cannot block a client forever.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.store == nil {
		return false, 0, errNotConnected
	}
	key := c.RateLimitKey(scope)
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if window > 0 {
		arm := count == 1
		if !arm {
			ttl, err := c.store.TTL(ctx, key).Result()
			if err != nil {
				return false, count, err
			}
			arm = ttl < 0
		}
		if arm {
			if err := c.store.Expire(ctx, key, window).Err(); err != nil {
				return false, count, err
			}
		}
	}
	return count <= limit, count, nil
}
