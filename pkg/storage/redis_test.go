//go:build integration

package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedisContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}
	return strings.TrimPrefix(endpoint, "redis://")
}

func newTestRedisStore(t *testing.T, ttl time.Duration) *RedisStore {
	t.Helper()
	store, err := NewRedisStore(setupRedisContainer(t), "", 0, ttl)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewRedisStore_Errors(t *testing.T) {
	tests := []struct {
		name string
		addr string
		db   int
	}{
		{"empty address", "", 0},
		{"negative db", "localhost:6379", -1},
		{"unreachable", "127.0.0.1:1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRedisStore(tt.addr, "", tt.db, time.Minute); err == nil {
				t.Error("NewRedisStore() error = nil, want error")
			}
		})
	}
}

func TestRedisStore_PutGet(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	want := testSnapshot("checkout", time.Now().UTC().Truncate(time.Second))
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := store.GetLatest(ctx, "checkout")
	if err != nil || !found {
		t.Fatalf("GetLatest() = found %v, error %v", found, err)
	}
	if !got.GeneratedAt.Equal(want.GeneratedAt) || got.Seasonal != want.Seasonal {
		t.Errorf("GetLatest() = %+v, want %+v", got, want)
	}
	if got.Series[0].Quantiles["p90"][0] != 12 || got.Series[1].Error != want.Series[1].Error {
		t.Errorf("GetLatest() series = %+v", got.Series)
	}

	// Stored payload is compressed, not plain JSON.
	raw, err := store.client.Get(ctx, redisKey("checkout")).Bytes()
	if err != nil {
		t.Fatalf("raw GET error = %v", err)
	}
	if strings.HasPrefix(string(raw), "{") {
		t.Error("stored payload looks like uncompressed JSON")
	}

	_, found, err = store.GetLatest(ctx, "missing")
	if err != nil || found {
		t.Errorf("GetLatest(missing) = found %v, error %v, want false, nil", found, err)
	}
}

func TestRedisStore_InvalidNames(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	for _, name := range []string{"", "a:b", "../x"} {
		if err := store.Put(ctx, Snapshot{Batch: name}); err == nil {
			t.Errorf("Put(%q) error = nil, want error", name)
		}
		if _, _, err := store.GetLatest(ctx, name); err == nil {
			t.Errorf("GetLatest(%q) error = nil, want error", name)
		}
	}
}

func TestRedisStore_TTL(t *testing.T) {
	store := newTestRedisStore(t, time.Second)
	ctx := context.Background()

	if err := store.Put(ctx, testSnapshot("short", time.Now())); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	time.Sleep(2 * time.Second)

	if _, found, _ := store.GetLatest(ctx, "short"); found {
		t.Error("snapshot still present after TTL")
	}
}

func TestRedisStore_Concurrent(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := store.Put(ctx, testSnapshot(fmt.Sprintf("b%d", i%4), time.Now())); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, _, err := store.GetLatest(ctx, fmt.Sprintf("b%d", i%4)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent operation error = %v", err)
	}
}

func TestRedisStore_Close(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)

	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := store.Put(context.Background(), testSnapshot("x", time.Now())); err == nil {
		t.Error("Put() after Close() error = nil, want error")
	}
}
