package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client the store needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type redisEntry[T any] struct {
	Data      T         `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisStore is a Store backed by Redis. Redis expires keys after the TTL
// but freshness is still decided from the stored acquisition timestamp.
type RedisStore[T any] struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore[T any](client RedisClient, prefix string, ttl time.Duration) *RedisStore[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore[T]{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (s *RedisStore[T]) WithClock(now func() time.Time) *RedisStore[T] {
	s.now = now
	return s
}

func (s *RedisStore[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	e, ok := s.load(ctx, key)
	if !ok || s.now().Sub(e.Timestamp) >= s.ttl {
		return zero, false
	}
	return e.Data, true
}

func (s *RedisStore[T]) Set(ctx context.Context, key string, data T) {
	payload, err := json.Marshal(redisEntry[T]{Data: data, Timestamp: s.now().UTC()})
	if err != nil {
		log.Printf("redis cache encode error key=%s: %v", s.prefix+key, err)
		return
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, s.ttl).Err(); err != nil {
		log.Printf("redis cache write error key=%s: %v", s.prefix+key, err)
	}
}

func (s *RedisStore[T]) IsValid(ctx context.Context, key string) bool {
	e, ok := s.load(ctx, key)
	return ok && s.now().Sub(e.Timestamp) < s.ttl
}

func (s *RedisStore[T]) load(ctx context.Context, key string) (redisEntry[T], bool) {
	var e redisEntry[T]
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return e, false
	}
	if err != nil {
		log.Printf("redis cache read error key=%s: %v", s.prefix+key, err)
		return e, false
	}
	if err := json.Unmarshal(data, &e); err != nil {
		log.Printf("redis cache decode error key=%s: %v", s.prefix+key, err)
		return e, false
	}
	return e, true
}
