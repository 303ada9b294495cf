package kvstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = time.Minute

// MemoryStore is a Store backed by an in-process TTL cache. A single mutex
// around the composite operations gives the atomicity the interface
// requires; go-cache's own expiry handles TTLs.
type MemoryStore struct {
	cache *gocache.Cache
	mu    sync.Mutex
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, memoryCleanupInterval),
	}
}

// Get returns the value for key, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found := s.cache.Get(key)
	if !found {
		recordOp("get", start, ErrNotFound)
		return "", ErrNotFound
	}

	value, ok := raw.(string)
	if !ok {
		err := fmt.Errorf("unexpected value type %T for key %s", raw, key)
		recordOp("get", start, err)
		return "", err
	}

	recordOp("get", start, nil)
	return value, nil
}

// Set stores value under key with the given TTL.
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(key, value, ttl)
	recordOp("set", start, nil)
	return nil
}

// Increment atomically increments the counter at key, creating it with the
// TTL on first use, and returns the new value.
func (s *MemoryStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found := s.cache.Get(key)
	if !found {
		s.cache.Set(key, "1", ttl)
		recordOp("increment", start, nil)
		return 1, nil
	}

	current, err := strconv.ParseInt(raw.(string), 10, 64)
	if err != nil {
		recordOp("increment", start, err)
		return 0, fmt.Errorf("corrupt counter at key %s: %w", key, err)
	}

	next := current + 1
	// Preserve the original expiry: replacing the value must not extend the window
	if _, expiry, ok := s.cache.GetWithExpiration(key); ok && !expiry.IsZero() {
		s.cache.Set(key, strconv.FormatInt(next, 10), time.Until(expiry))
	} else {
		s.cache.Set(key, strconv.FormatInt(next, 10), ttl)
	}

	recordOp("increment", start, nil)
	return next, nil
}

// Delete removes key and reports whether it existed.
func (s *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.cache.Get(key)
	if existed {
		s.cache.Delete(key)
	}

	recordOp("delete", start, nil)
	return existed, nil
}

// Ping always succeeds for the in-process store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
