package cron

import (
	"context"
	"testing"
	"time"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key], _ = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeRedisStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireIsExclusive(t *testing.T) {
	t.Parallel()

	store := newFakeRedisStore()
	ctx := context.Background()

	first, err := NewRedisLock(store, "bd:cron-worker:lock:test", 0)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	second, err := NewRedisLock(store, "bd:cron-worker:lock:test", 0)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second instance acquired a held lock")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseIgnoresForeignOwner(t *testing.T) {
	t.Parallel()

	store := newFakeRedisStore()
	ctx := context.Background()

	lock, err := NewRedisLock(store, "bd:cron-worker:lock:owner", 0)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	if ok, err := lock.Acquire(ctx); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	// another instance steals the key after a TTL expiry
	store.values["bd:cron-worker:lock:owner"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["bd:cron-worker:lock:owner"] != "someone-else" {
		t.Fatal("release deleted a lock owned by another instance")
	}
}

func TestRedisLockReleaseWithoutAcquireIsNoOp(t *testing.T) {
	t.Parallel()

	lock, err := NewRedisLock(newFakeRedisStore(), "bd:cron-worker:lock:idle", 0)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
}
