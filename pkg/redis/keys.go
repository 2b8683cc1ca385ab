package redis

import "strings"

// Every key lives under "oh:<kind>:...". Blank segments are dropped.
const keyNamespace = "oh"

func joinKey(kind string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range append([]string{kind}, parts...) {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// IdempotencyKey addresses a stored HTTP response for (scope, id).
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey("idempotency", scope, id)
}

// RateLimitKey addresses a fixed-window counter.
func (c *Client) RateLimitKey(scope string) string {
	return joinKey("rate_limit", scope)
}

// AccessSessionKey addresses the refresh-token record of one access token.
func (c *Client) AccessSessionKey(accessID string) string {
	return joinKey("session", "access", accessID)
}

// LockKey addresses a distributed lock.
func (c *Client) LockKey(name string) string {
	return joinKey("lock", name)
}
