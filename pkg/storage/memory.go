package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps the latest snapshot per batch in process memory. It is
// safe for concurrent use. Use RedisStore when several forecaster replicas
// must share snapshots.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	ttl       time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore returns a store without expiry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Snapshot)}
}

// NewMemoryStoreWithTTL returns a store that drops snapshots older than ttl,
// checking every cleanupInterval (default one minute). Call Stop to release
// the cleanup goroutine.
func NewMemoryStoreWithTTL(ttl, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		panic("TTL must be positive")
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	s := &MemoryStore{
		snapshots: make(map[string]Snapshot),
		ttl:       ttl,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go s.runCleanup(cleanupInterval)
	return s
}

// Stop ends the cleanup goroutine and waits for it. It is a no-op for stores
// without TTL and safe to call more than once.
func (s *MemoryStore) Stop() {
	if s.stop == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

func (s *MemoryStore) runCleanup(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.expire(now)
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) expire(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for batch, snap := range s.snapshots {
		if now.Sub(snap.GeneratedAt) > s.ttl {
			delete(s.snapshots, batch)
		}
	}
}

// Put replaces the snapshot of snapshot.Batch.
func (s *MemoryStore) Put(ctx context.Context, snapshot Snapshot) error {
	if err := ValidateBatchName(snapshot.Batch); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.Batch] = snapshot
	return nil
}

// GetLatest returns the snapshot of batch and whether one exists.
func (s *MemoryStore) GetLatest(ctx context.Context, batch string) (Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, found := s.snapshots[batch]
	return snap, found, nil
}

// Batches returns the stored batch names in sorted order.
func (s *MemoryStore) Batches() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored snapshots.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// Delete removes the snapshot of batch and reports whether one existed.
func (s *MemoryStore) Delete(batch string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.snapshots[batch]
	delete(s.snapshots, batch)
	return existed
}
