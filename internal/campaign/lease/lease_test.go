package lease

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
	})
	return NewRedisStore(rdb), mr
}

func TestClaimIsExclusive(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	ok, err := store.Claim(ctx, 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected first claim to succeed")
	}

	ok, err = store.Claim(ctx, 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected second claim on same row to fail")
	}

	ok, err = store.Claim(ctx, 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected claim on a different row to succeed")
	}
}

func TestReleaseFreesRow(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.Claim(ctx, 2, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Release(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := store.Claim(ctx, 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected claim after release to succeed")
	}
}

func TestClaimExpiresAfterTTL(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()

	if _, err := store.Claim(ctx, 2, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	ok, err := store.Claim(ctx, 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected claim after TTL expiry to succeed")
	}
}

func TestNoopStoreClaimsEverything(t *testing.T) {
	var store Store = NoopStore{}
	ctx := context.Background()

	for row := 2; row < 5; row++ {
		ok, err := store.Claim(ctx, row, time.Minute)
		if err != nil || !ok {
			t.Fatalf("expected noop claim to succeed, got ok=%v err=%v", ok, err)
		}
	}
	if err := store.Release(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
