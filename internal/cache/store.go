package cache

import "time"

// New returns a Redis-backed store when client is non-nil and an in-memory
// TTLCache otherwise. prefix namespaces the Redis keys.
func New[T any](client RedisClient, prefix string, ttl time.Duration) Store[T] {
	if client != nil {
		return NewRedisStore[T](client, prefix, ttl)
	}
	return NewTTLCache[T](ttl)
}
