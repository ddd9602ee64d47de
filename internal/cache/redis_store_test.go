package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	data     map[string][]byte
	expiries map[string]time.Duration
	setErr   error
	getErr   error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte), expiries: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		b, _ := json.Marshal(v)
		f.data[key] = b
	}
	f.expiries[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func TestRedisStoreRoundTripAndStaleness(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	fake := newFakeRedis()
	store := NewRedisStore[price](fake, "coinpulse:", 5*time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	store.Set(ctx, "btc", price{Price: 50000})
	if fake.expiries["coinpulse:btc"] != 5*time.Minute {
		t.Fatalf("expected redis expiration to match ttl, got %v", fake.expiries["coinpulse:btc"])
	}

	clock.Advance(4 * time.Minute)
	got, ok := store.Get(ctx, "btc")
	if !ok || got.Price != 50000 {
		t.Fatalf("expected cached value, got %+v ok=%v", got, ok)
	}

	clock.Advance(2 * time.Minute)
	if store.IsValid(ctx, "btc") {
		t.Fatal("expected entry to be stale after ttl")
	}
	if _, ok := store.Get(ctx, "btc"); ok {
		t.Fatal("stale entry must read as absent")
	}
}

func TestRedisStoreErrorsReadAsAbsent(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("connection reset")
	store := NewRedisStore[price](fake, "p:", time.Minute)

	if _, ok := store.Get(context.Background(), "btc"); ok {
		t.Fatal("read errors should be treated as a miss")
	}

	fake.getErr = nil
	fake.data["p:bad"] = []byte("{not-json")
	if store.IsValid(context.Background(), "bad") {
		t.Fatal("undecodable entries must not be valid")
	}
}

func TestRedisStoreWriteErrorIsSwallowed(t *testing.T) {
	fake := newFakeRedis()
	fake.setErr = errors.New("readonly")
	store := NewRedisStore[price](fake, "p:", time.Minute)

	store.Set(context.Background(), "btc", price{Price: 1})
	if _, ok := fake.data["p:btc"]; ok {
		t.Fatal("nothing should be stored on write error")
	}
}
