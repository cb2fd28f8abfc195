package redis

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

func TestCacheSetAndGet(t *testing.T) {
	client, _ := newTestRedisClient(t)

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "timeout:conn-1", `{"id":"to-1"}`, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "timeout:conn-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if val != `{"id":"to-1"}` {
		t.Fatalf("unexpected value %s", val)
	}
}

func TestCacheGetMissing(t *testing.T) {
	client, _ := newTestRedisClient(t)

	cache := NewCache(client)

	if _, err := cache.Get(context.Background(), "nope"); err != redislib.Nil {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
}

func TestCacheEntryExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "key", "value", time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, err := cache.Get(ctx, "key"); err != redislib.Nil {
		t.Fatalf("expected expired entry, got err=%v", err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, _ := newTestRedisClient(t)

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "key"); err != redislib.Nil {
		t.Fatalf("expected deleted entry, got err=%v", err)
	}
}
