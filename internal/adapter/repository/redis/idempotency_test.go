package redis

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyFirstRequestLocksKey(t *testing.T) {
	client, _ := newTestRedisClient(t)

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, cached, err := store.CheckAndSet(ctx, "req-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if exists {
		t.Fatal("fresh key should not exist")
	}
	if cached != nil {
		t.Fatalf("expected no cached response, got %s", cached)
	}

	exists, cached, err = store.CheckAndSet(ctx, "req-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	if !exists {
		t.Fatal("locked key should exist")
	}
	if string(cached) != "processing" {
		t.Fatalf("expected processing placeholder, got %s", cached)
	}
}

func TestIdempotencyUpdateReplacesPlaceholder(t *testing.T) {
	client, _ := newTestRedisClient(t)

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "req-1", nil, time.Minute); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	response := []byte(`{"id":"txn-1","points":5}`)
	if err := store.Update(ctx, "req-1", response, time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	exists, cached, err := store.CheckAndSet(ctx, "req-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("replay check failed: %v", err)
	}
	if !exists {
		t.Fatal("updated key should exist")
	}
	if string(cached) != string(response) {
		t.Fatalf("expected cached response, got %s", cached)
	}
}

func TestIdempotencyStoresResponseDirectly(t *testing.T) {
	client, _ := newTestRedisClient(t)

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	response := []byte(`{"ok":true}`)
	exists, _, err := store.CheckAndSet(ctx, "req-2", response, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if exists {
		t.Fatal("fresh key should not exist")
	}

	exists, cached, err := store.CheckAndSet(ctx, "req-2", nil, time.Minute)
	if err != nil {
		t.Fatalf("replay check failed: %v", err)
	}
	if !exists || string(cached) != string(response) {
		t.Fatalf("expected stored response, exists=%v cached=%s", exists, cached)
	}
}

func TestIdempotencyKeyExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "req-1", []byte("done"), time.Second); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	exists, _, err := store.CheckAndSet(ctx, "req-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("check after expiry failed: %v", err)
	}
	if exists {
		t.Fatal("expired key should be treated as new")
	}
}
